package repo

import (
	"context"
	"log/slog"
	"strings"
)

// NewStore opens the backend matching the database URL: postgres:// URLs get a
// pgx pool, anything else is treated as a SQLite file path.
func NewStore(ctx context.Context, databaseURL string, logger *slog.Logger) (Store, error) {
	url := strings.TrimSpace(databaseURL)
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return NewPostgres(ctx, url, logger)
	}
	return NewSQLite(ctx, url, logger)
}
