package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/recruitstat/internal/adapters/render"
	"github.com/okian/recruitstat/internal/adapters/repository"
	service "github.com/okian/recruitstat/internal/app"
	"github.com/okian/recruitstat/internal/domain/model"
	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
	"github.com/okian/recruitstat/pkg/storage"
	. "github.com/smartystreets/goconvey/convey"
)

func rosterCSV(names ...string) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(model.RequiredColumns, ",") + "\n")
	for i, name := range names {
		row := []string{
			fmt.Sprint(i + 1), name, "女", "24", "2001-03-04", "中共党员", "湖南长沙",
			"已签约(三方)", "工程师", "硕士研究生", "电气工程", "工科", "华中科技大学", "985",
		}
		b.WriteString(strings.Join(row, ",") + "\n")
	}
	return []byte(b.String())
}

// stepClock advances one second per call so archive names never collide.
func stepClock() func() time.Time {
	var n atomic.Int64
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

type fixture struct {
	dir     string
	archive storage.System
}

func newFixture(t *testing.T) fixture {
	dir := t.TempDir()
	archive, err := storage.NewLocal(filepath.Join(dir, "data"), logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return fixture{dir: dir, archive: archive}
}

func (f fixture) start(t *testing.T, opts ...service.Option) *service.Service {
	ctx := context.Background()
	history, err := repository.OpenSQLiteHistory(ctx, filepath.Join(f.dir, "history.db"), logger.Nop(),
		repository.WithMaxRecords(2))
	if err != nil {
		t.Fatal(err)
	}
	base := []service.Option{
		service.WithArchive(f.archive),
		service.WithHistory(history),
		service.WithHistorySize(2),
		service.WithClock(stepClock()),
		service.WithLogger(logger.Nop()),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return svc
}

func upload(svc *service.Service, name string, content []byte) (types.UploadResponse, error) {
	return svc.Upload(context.Background(), types.UploadRequest{Filename: name, Description: "春招", Content: content})
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service without storage", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))

		Convey("Then start is refused", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, service.ErrNotConfigured), ShouldBeTrue)
			So(svc.Ready(context.Background()), ShouldEqual, service.ErrNotStarted)
		})

		Convey("Then operations report not started", func() {
			_, err := svc.Statistics(context.Background())
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.ClearDataset(context.Background()), ShouldBeFalse)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service", t, func() {
		svc := newFixture(t).start(t)
		Reset(func() { _ = svc.Stop(context.Background()) })

		Convey("Then it is ready and has no data", func() {
			So(svc.Ready(context.Background()), ShouldBeNil)
			_, err := svc.Statistics(context.Background())
			So(errors.Is(err, types.ErrNoData), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, true)
		})

		Convey("Then stopping twice is harmless", func() {
			So(svc.Stop(context.Background()), ShouldBeNil)
			So(svc.Stop(context.Background()), ShouldBeNil)
		})
	})

	Convey("Given a renderer and no process logger", t, func() {
		f := newFixture(t)
		history, err := repository.OpenSQLiteHistory(context.Background(), filepath.Join(f.dir, "history.db"), logger.Nop())
		So(err, ShouldBeNil)
		renderer := render.Func(func(context.Context, string, map[string]string) ([]byte, int, error) {
			return []byte("%PDF-1.7"), 1, nil
		})
		svc := service.New(service.WithArchive(f.archive), service.WithHistory(history), service.WithRenderer(renderer))

		Convey("Then the render pool starts with a quiet logger", func() {
			var startErr error
			So(func() { startErr = svc.Start(context.Background()) }, ShouldNotPanic)
			So(startErr, ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.Stop(context.Background()), ShouldBeNil)
		})
	})
}

func TestServiceUpload(t *testing.T) {
	Convey("Given a started service", t, func() {
		f := newFixture(t)
		svc := f.start(t)
		ctx := context.Background()
		Reset(func() { _ = svc.Stop(ctx) })

		Convey("When a valid roster is uploaded", func() {
			resp, err := upload(svc, `C:\rosters\名单.csv`, rosterCSV("张三", "李四"))
			So(err, ShouldBeNil)

			Convey("Then the dataset is replaced", func() {
				So(resp.Message, ShouldEqual, "文件上传成功")
				So(resp.RecordCount, ShouldEqual, 2)
				So(resp.Duplicate, ShouldBeFalse)
				So(resp.Filename, ShouldEndWith, "_名单.csv")

				st, err := svc.Statistics(ctx)
				So(err, ShouldBeNil)
				So(st.TotalCount, ShouldEqual, 2)
				So(st.TrilateralCount, ShouldEqual, 2)
				So(st.UploadID, ShouldEqual, resp.UploadID)
				So(st.Description, ShouldEqual, "春招")
			})

			Convey("Then the upload is archived and logged", func() {
				ok, err := f.archive.Exists(ctx, "uploads/"+resp.Filename)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)

				h, err := svc.History(ctx)
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 1)
				So(h[0].OriginalName, ShouldEqual, "名单.csv")
				So(h[0].RecordCount, ShouldEqual, 2)
			})

			Convey("Then the same bytes again are flagged as a duplicate", func() {
				again, err := upload(svc, "名单.csv", rosterCSV("张三", "李四"))
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.UploadID, ShouldEqual, resp.UploadID)

				h, _ := svc.History(ctx)
				So(h, ShouldHaveLength, 1)
			})

			Convey("Then clearing the dataset keeps the history", func() {
				So(svc.ClearDataset(ctx), ShouldBeTrue)
				So(svc.ClearDataset(ctx), ShouldBeFalse)
				_, err := svc.Statistics(ctx)
				So(errors.Is(err, types.ErrNoData), ShouldBeTrue)
				h, _ := svc.History(ctx)
				So(h, ShouldHaveLength, 1)
			})
		})

		Convey("When a roster misses required columns", func() {
			content := []byte("序号,姓名\n1,张三\n")
			_, err := upload(svc, "bad.csv", content)

			Convey("Then it is rejected with the missing columns", func() {
				So(errors.Is(err, types.ErrInvalidUpload), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "缺少必需字段")
				So(err.Error(), ShouldContainSubstring, model.ColGender)
			})

			Convey("Then nothing is recorded", func() {
				h, _ := svc.History(ctx)
				So(h, ShouldBeEmpty)
				_, err := svc.Statistics(ctx)
				So(errors.Is(err, types.ErrNoData), ShouldBeTrue)
			})
		})

		Convey("When a roster has a header but no rows", func() {
			_, err := upload(svc, "empty.csv", rosterCSV())
			So(errors.Is(err, types.ErrInvalidUpload), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "没有数据")
		})

		Convey("When the file type is not supported", func() {
			_, err := upload(svc, "roster.txt", []byte("hello"))
			So(errors.Is(err, types.ErrInvalidUpload), ShouldBeTrue)
		})

		Convey("When the file name contains consecutive dots", func() {
			resp, err := upload(svc, "2025..roster.csv", rosterCSV("王五"))

			Convey("Then it is accepted and archived under that name", func() {
				So(err, ShouldBeNil)
				So(resp.Filename, ShouldEndWith, "_2025..roster.csv")
				ok, err := f.archive.Exists(ctx, "uploads/"+resp.Filename)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When more rosters arrive than the history keeps", func() {
			first, err := upload(svc, "a.csv", rosterCSV("甲"))
			So(err, ShouldBeNil)
			_, err = upload(svc, "b.csv", rosterCSV("乙"))
			So(err, ShouldBeNil)
			_, err = upload(svc, "c.csv", rosterCSV("丙"))
			So(err, ShouldBeNil)

			Convey("Then the oldest entry and its archive are dropped", func() {
				h, _ := svc.History(ctx)
				So(h, ShouldHaveLength, 2)
				So(h[0].OriginalName, ShouldEqual, "c.csv")
				ok, _ := f.archive.Exists(ctx, "uploads/"+first.Filename)
				So(ok, ShouldBeFalse)
			})

			Convey("Then the evicted roster is no longer a duplicate", func() {
				again, err := upload(svc, "a.csv", rosterCSV("甲"))
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeFalse)
			})
		})

		Convey("When the history is cleared", func() {
			resp, err := upload(svc, "a.csv", rosterCSV("甲"))
			So(err, ShouldBeNil)
			n, err := svc.ClearHistory(ctx)
			So(err, ShouldBeNil)

			Convey("Then entries and archives are gone but the dataset stays", func() {
				So(n, ShouldEqual, 1)
				h, _ := svc.History(ctx)
				So(h, ShouldBeEmpty)
				ok, _ := f.archive.Exists(ctx, "uploads/"+resp.Filename)
				So(ok, ShouldBeFalse)
				_, err := svc.Statistics(ctx)
				So(err, ShouldBeNil)
			})

			Convey("Then the same roster is accepted as new", func() {
				again, err := upload(svc, "a.csv", rosterCSV("甲"))
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeFalse)
			})
		})
	})
}

func TestServiceAutoLoad(t *testing.T) {
	Convey("Given a service that accepted a roster and stopped", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		first := f.start(t)
		resp, err := upload(first, "roster.csv", rosterCSV("张三", "李四", "王五"))
		So(err, ShouldBeNil)
		So(first.Stop(ctx), ShouldBeNil)

		Convey("When a new service starts over the same storage", func() {
			svc := f.start(t)
			Reset(func() { _ = svc.Stop(ctx) })

			Convey("Then the latest roster is loaded", func() {
				st, err := svc.Statistics(ctx)
				So(err, ShouldBeNil)
				So(st.TotalCount, ShouldEqual, 3)
				So(st.UploadID, ShouldEqual, resp.UploadID)
				So(st.Description, ShouldEqual, "自动加载的历史数据")
			})

			Convey("Then earlier uploads are still known duplicates", func() {
				again, err := upload(svc, "roster.csv", rosterCSV("张三", "李四", "王五"))
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
			})
		})

		Convey("When the archived file has gone missing", func() {
			So(f.archive.Delete(ctx, "uploads/"+resp.Filename), ShouldBeNil)
			svc := f.start(t)
			Reset(func() { _ = svc.Stop(ctx) })

			Convey("Then the service starts without data", func() {
				So(svc.Ready(ctx), ShouldBeNil)
				_, err := svc.Statistics(ctx)
				So(errors.Is(err, types.ErrNoData), ShouldBeTrue)
			})
		})
	})
}

func TestServiceReports(t *testing.T) {
	Convey("Given a service with a fake pdf renderer", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		var props atomic.Value
		renderer := render.Func(func(_ context.Context, html string, p map[string]string) ([]byte, int, error) {
			props.Store(p)
			return []byte("%PDF-1.7 " + html[:15]), 3, nil
		})
		svc := f.start(t, service.WithRenderer(renderer), service.WithRenderWorkers(1))
		Reset(func() { _ = svc.Stop(ctx) })

		Convey("When no roster is loaded", func() {
			_, err := svc.GenerateReport(ctx, types.FormatMarkdown, nil)
			So(errors.Is(err, types.ErrNoData), ShouldBeTrue)
		})

		Convey("When a roster is loaded", func() {
			_, err := upload(svc, "roster.csv", rosterCSV("张三", "李四"))
			So(err, ShouldBeNil)

			Convey("Then a markdown report is archived and downloadable", func() {
				resp, err := svc.GenerateReport(ctx, types.FormatMarkdown, nil)
				So(err, ShouldBeNil)
				So(resp.Success, ShouldBeTrue)
				So(resp.Message, ShouldEqual, "Markdown报告生成成功")
				So(resp.Filename, ShouldStartWith, "校园招聘分析报告_")
				So(resp.Filename, ShouldEndWith, ".md")
				So(resp.DownloadURL, ShouldStartWith, "/api/download-report/")

				rc, err := svc.OpenReport(ctx, resp.Filename)
				So(err, ShouldBeNil)
				body, _ := io.ReadAll(rc)
				_ = rc.Close()
				So(string(body), ShouldContainSubstring, "2")
			})

			Convey("Then an html report is a full page", func() {
				resp, err := svc.GenerateReport(ctx, types.FormatHTML, map[string]string{})
				So(err, ShouldBeNil)
				So(resp.Message, ShouldEqual, "HTML报告生成成功")
				rc, err := svc.OpenReport(ctx, resp.Filename)
				So(err, ShouldBeNil)
				body, _ := io.ReadAll(rc)
				_ = rc.Close()
				So(string(body), ShouldStartWith, "<!DOCTYPE html>")
			})

			Convey("Then a pdf report goes through the renderer", func() {
				resp, err := svc.GenerateReport(ctx, types.FormatPDF, nil)
				So(err, ShouldBeNil)
				So(resp.Message, ShouldEqual, "PDF报告生成成功")
				So(resp.Filename, ShouldEndWith, ".pdf")

				rc, err := svc.OpenReport(ctx, resp.Filename)
				So(err, ShouldBeNil)
				body, _ := io.ReadAll(rc)
				_ = rc.Close()
				So(string(body), ShouldStartWith, "%PDF-1.7 <!DOCTYPE html>")

				p, _ := props.Load().(map[string]string)
				So(p["Title"], ShouldEndWith, "届校园招聘分析报告")
			})

			Convey("Then an unknown format is rejected", func() {
				_, err := svc.GenerateReport(ctx, "docx", nil)
				So(errors.Is(err, types.ErrUnknownFormat), ShouldBeTrue)
			})
		})

		Convey("When a report that does not exist is opened", func() {
			_, err := svc.OpenReport(ctx, "missing.md")
			So(errors.Is(err, types.ErrReportNotFound), ShouldBeTrue)

			_, err = svc.OpenReport(ctx, "../uploads/x.csv")
			So(errors.Is(err, types.ErrReportNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a renderer slower than the render timeout", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		slow := render.Func(func(rctx context.Context, _ string, _ map[string]string) ([]byte, int, error) {
			<-rctx.Done()
			return nil, 0, rctx.Err()
		})
		svc := f.start(t,
			service.WithRenderer(slow),
			service.WithRenderWorkers(1),
			service.WithRenderTimeout(50*time.Millisecond),
		)
		Reset(func() { _ = svc.Stop(ctx) })
		_, err := upload(svc, "roster.csv", rosterCSV("张三"))
		So(err, ShouldBeNil)

		Convey("Then pdf generation times out", func() {
			_, err := svc.GenerateReport(ctx, types.FormatPDF, nil)
			So(errors.Is(err, types.ErrRenderTimeout), ShouldBeTrue)
		})
	})

	Convey("Given a service without a renderer", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		svc := f.start(t)
		Reset(func() { _ = svc.Stop(ctx) })
		_, err := upload(svc, "roster.csv", rosterCSV("张三"))
		So(err, ShouldBeNil)

		Convey("Then pdf generation reports the missing renderer", func() {
			_, err := svc.GenerateReport(ctx, types.FormatPDF, nil)
			So(errors.Is(err, service.ErrNotConfigured), ShouldBeTrue)
		})

		Convey("Then markdown still works", func() {
			_, err := svc.GenerateReport(ctx, types.FormatMarkdown, nil)
			So(err, ShouldBeNil)
		})
	})
}
