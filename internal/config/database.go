// internal/config/database.go
package config

import (
	"fmt"

	"github.com/lib/pq"
)

// DSN returns a key=value connection string. DATABASE_URL wins when set.
func (d *DatabaseConfig) DSN() (string, error) {
	if d.URL != "" {
		dsn, err := pq.ParseURL(d.URL)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		return dsn, nil
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	), nil
}
