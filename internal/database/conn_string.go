package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/mazaneh-relay/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	// userinfo escaping, not query escaping: '+' would not decode back to a space
	userinfo := url.UserPassword(cfg.User, cfg.Password).String()

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		userinfo,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
