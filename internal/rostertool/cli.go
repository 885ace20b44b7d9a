package rostertool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/recruitstat/internal/adapters/render"
	"github.com/okian/recruitstat/internal/adapters/sheet"
	"github.com/okian/recruitstat/internal/domain/report"
	"github.com/okian/recruitstat/internal/domain/stats"
	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
)

// Default flag values.
const (
	defaultBaseURL = "http://localhost:8000"
	defaultRows    = 200
	defaultTimeout = 2 * time.Minute
)

// NewRootCommand builds the rosterctl command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	var logFormat string
	var verbose bool
	log := logger.Nop()
	named := func(name string) logger.Logger { return log.Named(name) }

	root := &cobra.Command{
		Use:           "rosterctl",
		Short:         "Offline tools for campus recruitment rosters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWith(logger.Options{Format: logFormat, Writer: cmd.ErrOrStderr()}); err != nil {
				return err
			}
			log = logger.Get()
			if verbose {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newAnalyzeCommand(),
		newReportCommand(named),
		newGenerateCommand(named),
		newVerifyCommand(named, &verbose),
	)
	return root
}

func newAnalyzeCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Validate a roster and print its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a.Snapshot)
			}
			printSummary(cmd.OutOrStdout(), a.Snapshot)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full snapshot as JSON")
	return cmd
}

func printSummary(w io.Writer, s stats.Snapshot) {
	fmt.Fprintf(w, "总人数: %d  两方: %d  三方: %d\n", s.TotalCount, s.BilateralCount, s.TrilateralCount)
	for _, d := range stats.Dimensions {
		fmt.Fprintf(w, "\n[%s]\n", d)
		for _, e := range s.Distribution(d) {
			fmt.Fprintf(w, "  %-12s %5d  %6.2f%%\n", e.Name, e.Count, e.Percentage)
		}
	}
}

func newReportCommand(named func(string) logger.Logger) *cobra.Command {
	var (
		format    string
		dir       string
		classYear int
		targets   int
		org       string
		chromeBin string
	)
	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Write a markdown, html or pdf report for a roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := AnalyzeFile(ctx, args[0])
			if err != nil {
				return err
			}
			composer := report.New(report.WithClassYear(classYear), report.WithOrganization(org), report.WithTargetInstitutions(targets))

			var renderer render.Renderer
			if format == types.FormatPDF {
				chrome := render.NewChrome(render.Config{Bin: chromeBin}, named("chrome"))
				defer func() { _ = chrome.Close() }()
				renderer = chrome
			}
			path, err := WriteReport(ctx, a, composer, renderer, strings.ToLower(format), dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", types.FormatMarkdown, "markdown, html or pdf")
	cmd.Flags().StringVarP(&dir, "out", "o", "reports", "output directory")
	cmd.Flags().IntVar(&classYear, "class-year", report.New().ClassYear(), "graduating class year")
	cmd.Flags().IntVar(&targets, "target-institutions", report.DefaultTargetInstitutions, "domestic target institutions named in the intro")
	cmd.Flags().StringVar(&org, "organization", report.New().Organization(), "organization named in the report")
	cmd.Flags().StringVar(&chromeBin, "chrome-bin", "", "browser executable for pdf output")
	return cmd
}

func newGenerateCommand(named func(string) logger.Logger) *cobra.Command {
	var (
		rows int
		seed uint64
		out  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic roster workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = "roster_" + time.Now().Format("20060102_150405") + ".xlsx"
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, directoryPermission); err != nil {
					return err
				}
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if _, err := WriteGenerated(cmd.Context(), named("generate"), f, rows, seed); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", defaultRows, "number of rows")
	cmd.Flags().Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output workbook (default roster_TIMESTAMP.xlsx)")
	return cmd
}

func newVerifyCommand(named func(string) logger.Logger, verbose *bool) *cobra.Command {
	cfg := &Config{}
	var (
		file string
		rows int
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Upload a roster to a running server and compare its statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Verbose = *verbose
			cfg.Logger = named("rosterctl")
			if cfg.Password == "" {
				cfg.Password = os.Getenv("RECRUIT_AUTH__PASSWORD")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			name, content := filepath.Base(file), []byte(nil)
			if file != "" {
				var err error
				if content, err = os.ReadFile(file); err != nil {
					return err
				}
			} else {
				var buf bytes.Buffer
				if _, err := WriteGenerated(ctx, cfg.Logger, &buf, rows, seed); err != nil {
					return err
				}
				name, content = "rosterctl_verify.xlsx", buf.Bytes()
			}
			if err := checkUploadable(name); err != nil {
				return err
			}

			st, diffs, err := Verify(ctx, cfg, name, content)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, d := range diffs {
				fmt.Fprintln(w, "MISMATCH", d)
			}
			fmt.Fprintf(w, "rows=%d dimensions=%d mismatches=%d duration=%s\n",
				st.RowsUploaded, st.Dimensions, st.Mismatches, st.Duration.Round(time.Millisecond))
			if len(diffs) > 0 {
				return fmt.Errorf("%d statistics mismatches", len(diffs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", defaultBaseURL, "base URL of the server")
	cmd.Flags().StringVar(&cfg.Password, "password", "", "shared login password (default $RECRUIT_AUTH__PASSWORD)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "overall timeout")
	cmd.Flags().StringVar(&file, "file", "", "roster to upload; a synthetic one is generated when empty")
	cmd.Flags().IntVarP(&rows, "rows", "n", defaultRows, "rows of the synthetic roster")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed of the synthetic roster")
	return cmd
}

func checkUploadable(name string) error {
	if !sheet.Supported(name) {
		return fmt.Errorf("%w: %s", sheet.ErrUnsupportedFormat, name)
	}
	return nil
}
