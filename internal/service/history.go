package service

import (
	"context"
	"fmt"

	"github.com/jask/bitacora/internal/database/repository"
)

// HistoryService reads and writes the fetch journal.
type HistoryService struct {
	Logs *repository.FetchLogRepo
}

// Record stores one resolved cycle.
func (s *HistoryService) Record(ctx context.Context, entry repository.FetchLog) error {
	if s == nil || s.Logs == nil {
		return fmt.Errorf("history: journal not configured")
	}
	if err := s.Logs.Insert(ctx, entry); err != nil {
		return fmt.Errorf("history: insert %s: %w", entry.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]repository.FetchLog, error) {
	if s == nil || s.Logs == nil {
		return nil, fmt.Errorf("history: journal not configured")
	}
	return s.Logs.List(ctx, limit)
}
