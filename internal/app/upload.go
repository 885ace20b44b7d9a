package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/recruitstat/internal/adapters/http/live"
	"github.com/okian/recruitstat/internal/adapters/repository"
	"github.com/okian/recruitstat/internal/adapters/sheet"
	"github.com/okian/recruitstat/internal/domain/dedupe"
	"github.com/okian/recruitstat/internal/domain/enrich"
	"github.com/okian/recruitstat/internal/domain/schema"
	"github.com/okian/recruitstat/internal/domain/stats"
	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
	"github.com/okian/recruitstat/pkg/metrics"
	"github.com/okian/recruitstat/pkg/storage"
)

const (
	uploadMessage       = "文件上传成功"
	autoLoadDescription = "自动加载的历史数据"
	archiveStampLayout  = "20060102_150405"
)

var uploadContentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".csv":  "text/csv",
}

// Upload runs parse, validation, enrichment and aggregation over an uploaded
// roster and makes it the current dataset. A roster whose bytes were already
// accepted replaces the current dataset again but is not archived twice.
func (s *Service) Upload(ctx context.Context, req types.UploadRequest) (types.UploadResponse, error) {
	if err := s.check(); err != nil {
		return types.UploadResponse{}, err
	}
	start := time.Now()
	name := path.Base(strings.ReplaceAll(req.Filename, "\\", "/"))
	if !sheet.Supported(name) {
		metrics.RecordUpload("rejected")
		return types.UploadResponse{}, &types.InvalidUploadError{
			Reason: "不支持的文件格式，请上传 " + strings.Join(sheet.Extensions, "、") + " 文件",
			Err:    sheet.ErrUnsupportedFormat,
		}
	}

	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	digest := dedupe.Digest(req.Content)
	duplicate := s.deduper.SeenAndRecord(ctx, digest)

	cur, err := s.load(ctx, name, req.Content)
	if err != nil {
		if !duplicate {
			s.deduper.Unrecord(ctx, digest)
		}
		metrics.RecordUpload("rejected")
		s.logger.Warn(ctx, "upload rejected",
			logger.String("filename", name),
			logger.Error(err),
		)
		return types.UploadResponse{}, err
	}

	now := s.now().UTC()
	cur.ID = uuid.NewString()
	cur.Filename = now.Local().Format(archiveStampLayout) + "_" + name
	cur.Description = req.Description
	cur.UploadedAt = now

	if duplicate {
		if prev, ok := s.findByDigest(ctx, digest); ok {
			cur.ID = prev.ID
			cur.Filename = prev.Filename
		}
	} else if err := s.record(ctx, cur, name, digest, req.Content); err != nil {
		s.deduper.Unrecord(ctx, digest)
		metrics.RecordUpload("error")
		return types.UploadResponse{}, err
	}

	if _, err := s.dataset.Replace(cur); err != nil {
		metrics.RecordUpload("error")
		return types.UploadResponse{}, err
	}

	result := "accepted"
	if duplicate {
		result = "duplicate"
	}
	metrics.RecordUpload(result)
	metrics.RecordUploadRecords(len(cur.Enriched))
	metrics.RecordStageDuration("upload", float64(time.Since(start).Milliseconds()))
	s.notifier.Publish(live.Event{
		Type:        live.EventDatasetReplaced,
		UploadID:    cur.ID,
		Filename:    cur.Filename,
		Description: cur.Description,
		RecordCount: len(cur.Enriched),
	})
	s.logger.Info(ctx, "roster uploaded",
		logger.String("uploadId", cur.ID),
		logger.String("filename", cur.Filename),
		logger.Int("records", len(cur.Enriched)),
		logger.Bool("duplicate", duplicate),
		logger.Duration("elapsed", time.Since(start)),
	)

	return types.UploadResponse{
		Message:     uploadMessage,
		UploadID:    cur.ID,
		Filename:    cur.Filename,
		RecordCount: len(cur.Enriched),
		UploadTime:  cur.UploadedAt,
		Duplicate:   duplicate,
	}, nil
}

// load turns raw upload bytes into a dataset with its snapshot.
func (s *Service) load(ctx context.Context, filename string, content []byte) (*repository.Current, error) {
	t0 := time.Now()
	table, err := sheet.ParseBytes(filename, content)
	if err != nil {
		return nil, &types.InvalidUploadError{Reason: "文件解析失败，请检查文件格式是否正确", Err: err}
	}
	t1 := time.Now()
	metrics.RecordStageDuration("parse", float64(t1.Sub(t0).Milliseconds()))

	records, err := schema.Check(table)
	if err != nil {
		return nil, &types.InvalidUploadError{Reason: err.Error(), Err: err}
	}
	t2 := time.Now()
	metrics.RecordStageDuration("validate", float64(t2.Sub(t1).Milliseconds()))

	enriched := enrich.Dataset(records)
	t3 := time.Now()
	metrics.RecordStageDuration("enrich", float64(t3.Sub(t2).Milliseconds()))

	snap, err := stats.Aggregate(ctx, enriched)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	metrics.RecordStageDuration("aggregate", float64(time.Since(t3).Milliseconds()))
	metrics.RecordDistributionsComputed()

	return &repository.Current{Enriched: enriched, Snapshot: snap}, nil
}

// record archives the upload and appends it to history. Entries pushed out
// by the history cap lose their archived file and dedupe digest.
func (s *Service) record(ctx context.Context, cur *repository.Current, original, digest string, content []byte) error {
	key := uploadsPrefix + cur.Filename
	ct := uploadContentTypes[strings.ToLower(path.Ext(original))]
	if err := s.archive.Upload(ctx, key, bytes.NewReader(content), ct); err != nil {
		return fmt.Errorf("archive upload: %w", err)
	}

	evicted, err := s.history.Append(ctx, types.HistoryEntry{
		ID:           cur.ID,
		Filename:     cur.Filename,
		OriginalName: original,
		Description:  cur.Description,
		UploadTime:   cur.UploadedAt,
		FileSize:     int64(len(content)),
		RecordCount:  len(cur.Enriched),
		Digest:       digest,
	})
	if err != nil {
		if derr := s.archive.Delete(ctx, key); derr != nil && !errors.Is(derr, storage.ErrNotFound) {
			s.logger.Warn(ctx, "remove orphaned upload", logger.String("key", key), logger.Error(derr))
		}
		return fmt.Errorf("append history: %w", err)
	}
	for _, e := range evicted {
		s.forget(ctx, e)
	}
	return nil
}

// forget deletes the archived file of a history entry and its digest.
func (s *Service) forget(ctx context.Context, e types.HistoryEntry) {
	if e.Digest != "" {
		s.deduper.Unrecord(ctx, e.Digest)
	}
	key := uploadsPrefix + e.Filename
	if err := s.archive.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn(ctx, "delete archived upload", logger.String("key", key), logger.Error(err))
	}
}

func (s *Service) findByDigest(ctx context.Context, digest string) (types.HistoryEntry, bool) {
	entries, err := s.history.List(ctx)
	if err != nil {
		return types.HistoryEntry{}, false
	}
	for _, e := range entries {
		if e.Digest == digest {
			return e, true
		}
	}
	return types.HistoryEntry{}, false
}

// seedDeduper remembers the digests of uploads still in history, oldest
// first so eviction order matches the history cap.
func (s *Service) seedDeduper(ctx context.Context) error {
	entries, err := s.history.List(ctx)
	if err != nil {
		return fmt.Errorf("seed dedupe: %w", err)
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Digest != "" {
			s.deduper.SeenAndRecord(ctx, entries[i].Digest)
		}
	}
	return nil
}

// autoLoad makes the newest archived upload current. Failures are logged and
// leave the service without data.
func (s *Service) autoLoad(ctx context.Context) {
	latest, err := s.history.Latest(ctx)
	if errors.Is(err, repository.ErrNoDataset) {
		s.logger.Info(ctx, "no archived upload to load")
		return
	}
	if err != nil {
		s.logger.Warn(ctx, "auto-load: read history", logger.Error(err))
		return
	}

	rc, err := s.archive.Download(ctx, uploadsPrefix+latest.Filename)
	if err != nil {
		s.logger.Warn(ctx, "auto-load: open archive", logger.String("filename", latest.Filename), logger.Error(err))
		return
	}
	content, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		s.logger.Warn(ctx, "auto-load: read archive", logger.String("filename", latest.Filename), logger.Error(err))
		return
	}

	cur, err := s.load(ctx, latest.OriginalName, content)
	if err != nil {
		s.logger.Warn(ctx, "auto-load: archived upload no longer valid", logger.String("filename", latest.Filename), logger.Error(err))
		return
	}
	cur.ID = latest.ID
	cur.Filename = latest.Filename
	cur.Description = autoLoadDescription
	cur.UploadedAt = latest.UploadTime
	if _, err := s.dataset.Replace(cur); err != nil {
		s.logger.Warn(ctx, "auto-load: replace dataset", logger.Error(err))
		return
	}
	s.logger.Info(ctx, "auto-loaded latest upload",
		logger.String("filename", latest.Filename),
		logger.Int("records", len(cur.Enriched)),
	)
}
