package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/recruitstat/internal/adapters/http/api"
	workerpool "github.com/okian/recruitstat/internal/adapters/mq/worker"
	"github.com/okian/recruitstat/internal/adapters/repository"
	"github.com/okian/recruitstat/internal/domain/model"
	"github.com/okian/recruitstat/internal/domain/report"
	"github.com/okian/recruitstat/internal/domain/stats"
	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
	"github.com/okian/recruitstat/pkg/metrics"
	"github.com/okian/recruitstat/pkg/storage"
)

type reportFormat struct {
	ext         string
	contentType string
	message     string
}

var reportFormats = map[string]reportFormat{
	types.FormatMarkdown: {ext: "md", contentType: "text/markdown; charset=utf-8", message: "Markdown报告生成成功"},
	types.FormatHTML:     {ext: "html", contentType: "text/html; charset=utf-8", message: "HTML报告生成成功"},
	types.FormatPDF:      {ext: "pdf", contentType: "application/pdf", message: "PDF报告生成成功"},
}

// GenerateReport composes a report over the current dataset, archives it and
// returns its download location.
func (s *Service) GenerateReport(ctx context.Context, format string, charts map[string]string) (types.ReportResponse, error) {
	if err := s.check(); err != nil {
		return types.ReportResponse{}, err
	}
	rf, ok := reportFormats[format]
	if !ok {
		return types.ReportResponse{}, fmt.Errorf("%w: %q", types.ErrUnknownFormat, format)
	}
	cur, err := s.dataset.Current()
	if errors.Is(err, repository.ErrNoDataset) {
		metrics.RecordReport(format, "no_data")
		return types.ReportResponse{}, types.ErrNoData
	}
	if err != nil {
		return types.ReportResponse{}, err
	}

	start := time.Now()
	content, err := s.compose(ctx, format, cur.Snapshot, report.ChartImages(charts))
	if err != nil {
		metrics.RecordReport(format, reportResult(err))
		return types.ReportResponse{}, err
	}

	name := s.composer.Filename(rf.ext)
	if err := s.archive.Upload(ctx, reportsPrefix+name, bytes.NewReader(content), rf.contentType); err != nil {
		metrics.RecordReport(format, "error")
		return types.ReportResponse{}, fmt.Errorf("archive report: %w", err)
	}

	elapsed := time.Since(start)
	metrics.RecordReport(format, "success")
	metrics.RecordReportDuration(format, float64(elapsed.Milliseconds()))
	s.logger.Info(ctx, "report generated",
		logger.String("format", format),
		logger.String("filename", name),
		logger.Int("bytes", len(content)),
		logger.Duration("elapsed", elapsed),
	)
	return types.ReportResponse{
		Success:     true,
		Message:     rf.message,
		Filename:    name,
		DownloadURL: api.DownloadPrefix + url.PathEscape(name),
	}, nil
}

func (s *Service) compose(ctx context.Context, format string, snap stats.Snapshot, charts report.ChartImages) ([]byte, error) {
	switch format {
	case types.FormatMarkdown:
		return []byte(s.composer.Markdown(snap, charts)), nil
	case types.FormatHTML:
		page, err := s.composer.HTML(snap, charts)
		if err != nil {
			return nil, err
		}
		return []byte(page), nil
	default:
		page, err := s.composer.HTML(snap, charts)
		if err != nil {
			return nil, err
		}
		return s.renderPDF(ctx, page)
	}
}

// renderPDF hands page to the render pool and waits for the result. A full
// queue is reported as backpressure rather than waited out.
func (s *Service) renderPDF(ctx context.Context, page string) ([]byte, error) {
	if s.renderer == nil || s.workerPool == nil {
		return nil, fmt.Errorf("%w: pdf renderer", ErrNotConfigured)
	}
	year := strconv.Itoa(s.composer.ClassYear())
	props := map[string]string{
		"Title":   year + "届校园招聘分析报告",
		"Subject": year + "届校园招聘拟录用人员统计分析",
		"Author":  s.composer.Organization(),
	}

	deadline := time.Now().Add(s.renderTimeout)
	job := model.NewRenderJob(uuid.NewString(), page, props, deadline)
	if !s.renderQueue.Enqueue(ctx, job) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, types.ErrBackpressure
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case res := <-job.Reply:
		if errors.Is(res.Err, workerpool.ErrExpired) || errors.Is(res.Err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", types.ErrRenderTimeout, res.Err)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.PDF, nil
	case <-timer.C:
		return nil, types.ErrRenderTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func reportResult(err error) string {
	switch {
	case errors.Is(err, types.ErrBackpressure):
		return "backpressure"
	case errors.Is(err, types.ErrRenderTimeout):
		return "timeout"
	default:
		return "error"
	}
}

// OpenReport streams an archived report.
func (s *Service) OpenReport(ctx context.Context, filename string) (io.ReadCloser, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if filename == "" || filename != path.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return nil, types.ErrReportNotFound
	}
	rc, err := s.archive.Download(ctx, reportsPrefix+filename)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return nil, types.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	return rc, nil
}
