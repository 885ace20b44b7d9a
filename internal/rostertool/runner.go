package rostertool

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/recruitstat/internal/domain/stats"
	"github.com/okian/recruitstat/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o640
)

// Verify uploads a roster to the server and checks that the statistics it
// serves match a local run of the same pipeline. It returns the mismatches.
func Verify(ctx context.Context, config *Config, filename string, content []byte) (*Stats, []string, error) {
	log := config.logger().Named("verify")
	st := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting roster verification",
		logger.String("baseURL", config.BaseURL),
		logger.String("filename", filename),
		logger.Duration("timeout", config.Timeout),
	)

	local, err := AnalyzeBytes(ctx, filename, content)
	if err != nil {
		return st, nil, fmt.Errorf("local analysis failed: %w", err)
	}

	client := NewClient(config.BaseURL, config.Timeout)
	if err := client.Health(ctx); err != nil {
		return st, nil, fmt.Errorf("service health check failed: %w", err)
	}
	if config.Password != "" {
		if err := client.Login(ctx, config.Password); err != nil {
			return st, nil, err
		}
	}

	resp, err := client.Upload(ctx, filename, content, "rosterctl verify")
	if err != nil {
		return st, nil, err
	}
	st.RowsUploaded = resp.RecordCount
	log.Info(ctx, "roster uploaded",
		logger.String("uploadId", resp.UploadID),
		logger.Int("records", resp.RecordCount),
		logger.Bool("duplicate", resp.Duplicate),
	)

	remote, err := client.Statistics(ctx)
	if err != nil {
		return st, nil, err
	}

	diffs := Compare(local.Snapshot, remote.Snapshot)
	for _, d := range diffs {
		log.Warn(ctx, "statistics mismatch", logger.String("diff", d))
	}
	if config.Verbose {
		for _, d := range local.Snapshot.InstitutionCategory {
			log.Info(ctx, "institution tier", logger.String("name", d.Name), logger.Int("count", d.Count))
		}
	}

	st.Dimensions = len(stats.Dimensions)
	st.Mismatches = len(diffs)
	st.EndTime = time.Now()
	st.Duration = st.EndTime.Sub(st.StartTime)
	log.Info(ctx, "verification finished",
		logger.Int("rowsUploaded", st.RowsUploaded),
		logger.Int("mismatches", st.Mismatches),
		logger.Duration("duration", st.Duration),
	)
	return st, diffs, nil
}
