package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/bitacora/internal/database"
	"github.com/jask/bitacora/internal/database/repository"
)

// MaintenanceService houses destructive/ops actions surfaced through the CLI.
type MaintenanceService struct {
	DB   *sql.DB
	Logs *repository.FetchLogRepo
}

// ClearHistory wipes the fetch journal and returns how many entries were removed.
// It keeps the schema intact so the app can continue running.
func (s *MaintenanceService) ClearHistory(ctx context.Context) (int, error) {
	if s.DB == nil || s.Logs == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	n, err := s.Logs.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count journal: %w", err)
	}
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.Logs.DeleteAll(ctx, tx); err != nil {
			return fmt.Errorf("reset table fetch_log: %w", err)
		}
		return nil
	}); err != nil {
		return 0, err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return n, nil
}
