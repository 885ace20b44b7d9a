package rostertool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/recruitstat/internal/adapters/render"
	"github.com/okian/recruitstat/internal/adapters/sheet"
	"github.com/okian/recruitstat/internal/domain/enrich"
	"github.com/okian/recruitstat/internal/domain/model"
	"github.com/okian/recruitstat/internal/domain/report"
	"github.com/okian/recruitstat/internal/domain/schema"
	"github.com/okian/recruitstat/internal/domain/stats"
	"github.com/okian/recruitstat/internal/domain/types"
)

// ErrNoRenderer is returned for a PDF report without a renderer.
var ErrNoRenderer = errors.New("pdf renderer not configured")

// Analysis is the local pipeline result for one roster.
type Analysis struct {
	Enriched model.EnrichedDataset
	Snapshot stats.Snapshot
}

// AnalyzeBytes runs validation, enrichment and aggregation over an upload.
func AnalyzeBytes(ctx context.Context, filename string, content []byte) (Analysis, error) {
	table, err := sheet.ParseBytes(filename, content)
	if err != nil {
		return Analysis{}, err
	}
	records, err := schema.Check(table)
	if err != nil {
		return Analysis{}, err
	}
	enriched := enrich.Dataset(records)
	snap, err := stats.Aggregate(ctx, enriched)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Enriched: enriched, Snapshot: snap}, nil
}

// AnalyzeFile is AnalyzeBytes over a file on disk.
func AnalyzeFile(ctx context.Context, path string) (Analysis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Analysis{}, err
	}
	return AnalyzeBytes(ctx, filepath.Base(path), content)
}

// WriteReport composes a report in format and writes it under dir. A PDF is
// printed through renderer, which must be non-nil for that format.
func WriteReport(ctx context.Context, a Analysis, composer *report.Composer, renderer render.Renderer, format, dir string) (string, error) {
	var (
		content []byte
		ext     string
	)
	switch format {
	case types.FormatMarkdown:
		content, ext = []byte(composer.Markdown(a.Snapshot, nil)), "md"
	case types.FormatHTML, types.FormatPDF:
		page, err := composer.HTML(a.Snapshot, nil)
		if err != nil {
			return "", err
		}
		content, ext = []byte(page), "html"
		if format == types.FormatPDF {
			if renderer == nil {
				return "", ErrNoRenderer
			}
			pdf, _, err := renderer.Render(ctx, page, map[string]string{
				"Title":  fmt.Sprintf("%d届校园招聘分析报告", composer.ClassYear()),
				"Author": composer.Organization(),
			})
			if err != nil {
				return "", err
			}
			content, ext = pdf, "pdf"
		}
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnknownFormat, format)
	}

	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := filepath.Join(dir, composer.Filename(ext))
	if err := os.WriteFile(out, content, filePermission); err != nil {
		return "", err
	}
	return out, nil
}
