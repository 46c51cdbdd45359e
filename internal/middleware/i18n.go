// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

var languageAliases = map[string]string{
	"zh-tw":   "zh_TW",
	"zh_tw":   "zh_TW",
	"zh-hant": "zh_TW",
	"zh-hk":   "zh_TW",
	"en":      "en",
	"en-us":   "en",
	"en-gb":   "en",
}

// I18nMiddleware picks the first language of Accept-Language, e.g. "zh-TW,zh;q=0.9,en;q=0.8",
// and stores it as "lang". Unknown languages fall back to English.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", preferredLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

func preferredLanguage(header string) string {
	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	if lang, ok := languageAliases[strings.ToLower(first)]; ok {
		return lang
	}
	return "en"
}
