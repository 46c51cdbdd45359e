package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslations(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Lease created successfully and pending approval.", T("en", KeyLeaseCreated))
	assert.Equal(t, "Lease rejected successfully. Reason: missing permit", T("en", KeyLeaseRejected, "missing permit"))
	assert.Equal(t, "2 document(s) added to lease successfully.", T("en", KeyLeaseDocumentsAdded, 2))

	// zh_TW has no entry for this key and falls back to English.
	assert.Equal(t, "Documents can be uploaded to this lease.", T("zh_TW", KeyDocumentUploadAllowed))
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))
	assert.ElementsMatch(t, []string{"en", "zh_TW"}, GetSupportedLanguages())
}
