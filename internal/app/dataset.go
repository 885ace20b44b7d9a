package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/recruitstat/internal/adapters/http/live"
	"github.com/okian/recruitstat/internal/adapters/repository"
	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
)

// Statistics returns the snapshot of the current dataset.
func (s *Service) Statistics(ctx context.Context) (types.StatisticsResponse, error) {
	if err := s.check(); err != nil {
		return types.StatisticsResponse{}, err
	}
	cur, err := s.dataset.Current()
	if errors.Is(err, repository.ErrNoDataset) {
		return types.StatisticsResponse{}, types.ErrNoData
	}
	if err != nil {
		return types.StatisticsResponse{}, err
	}
	return types.StatisticsResponse{
		Snapshot:    cur.Snapshot,
		UploadID:    cur.ID,
		UploadTime:  cur.UploadedAt,
		Description: cur.Description,
	}, nil
}

// ClearDataset drops the current dataset. History and archives are kept.
func (s *Service) ClearDataset(ctx context.Context) bool {
	if s.check() != nil {
		return false
	}
	cleared := s.dataset.Clear()
	if cleared {
		s.notifier.Publish(live.Event{Type: live.EventDatasetCleared})
		s.logger.Info(ctx, "dataset cleared")
	}
	return cleared
}

// History lists accepted uploads, newest first.
func (s *Service) History(ctx context.Context) ([]types.HistoryEntry, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	entries, err := s.history.List(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	return entries, nil
}

// ClearHistory deletes every history entry with its archived upload. The
// current dataset stays loaded.
func (s *Service) ClearHistory(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	removed, err := s.history.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	for _, e := range removed {
		s.forget(ctx, e)
	}
	s.deduper.Reset(ctx)

	s.notifier.Publish(live.Event{Type: live.EventHistoryCleared})
	s.logger.Info(ctx, "upload history cleared", logger.Int("removed", len(removed)))
	return len(removed), nil
}
