package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/recruitstat/internal/adapters/repository"
	"github.com/okian/recruitstat/internal/domain/model"
	"github.com/okian/recruitstat/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDatasetStore(t *testing.T) {
	Convey("Given an empty dataset store", t, func() {
		s := repository.NewDatasetStore()

		Convey("Then reading reports no dataset", func() {
			_, err := s.Current()
			So(errors.Is(err, repository.ErrNoDataset), ShouldBeTrue)
			So(s.Clear(), ShouldBeFalse)
		})

		Convey("When a nil dataset is stored", func() {
			_, err := s.Replace(nil)
			So(errors.Is(err, repository.ErrNilDataset), ShouldBeTrue)
		})

		Convey("When datasets are replaced", func() {
			first := &repository.Current{ID: "a", Enriched: make(model.EnrichedDataset, 2)}
			second := &repository.Current{ID: "b", Enriched: make(model.EnrichedDataset, 3)}
			prev, err := s.Replace(first)
			So(err, ShouldBeNil)
			So(prev, ShouldBeNil)
			prev, err = s.Replace(second)
			So(err, ShouldBeNil)

			Convey("Then the newest wins and the previous is returned", func() {
				So(prev, ShouldEqual, first)
				cur, err := s.Current()
				So(err, ShouldBeNil)
				So(cur.ID, ShouldEqual, "b")
			})

			Convey("Then clear empties the store", func() {
				So(s.Clear(), ShouldBeTrue)
				_, err := s.Current()
				So(errors.Is(err, repository.ErrNoDataset), ShouldBeTrue)
			})
		})

		Convey("When readers race with writers", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						_, _ = s.Replace(&repository.Current{ID: fmt.Sprint(j), Enriched: make(model.EnrichedDataset, j)})
					}
				}()
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						if cur, err := s.Current(); err == nil && cur.ID != fmt.Sprint(len(cur.Enriched)) {
							panic("torn read")
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then every read saw a whole dataset", func() {
				cur, err := s.Current()
				So(err, ShouldBeNil)
				So(cur.ID, ShouldEqual, "99")
			})
		})
	})
}

func entry(i int, at time.Time) types.HistoryEntry {
	return types.HistoryEntry{
		ID:           fmt.Sprintf("id-%d", i),
		Filename:     fmt.Sprintf("uploads/%d.xlsx", i),
		OriginalName: "花名册.xlsx",
		Description:  fmt.Sprintf("第%d批", i),
		UploadTime:   at,
		FileSize:     int64(100 + i),
		RecordCount:  i,
		Digest:       fmt.Sprintf("digest-%d", i),
	}
}

func TestSQLiteHistory(t *testing.T) {
	ctx := context.Background()

	Convey("Given a history capped at three entries", t, func() {
		h, err := repository.OpenSQLiteHistory(ctx, filepath.Join(t.TempDir(), "history.db"), nil, repository.WithMaxRecords(3))
		So(err, ShouldBeNil)
		Reset(func() { _ = h.Close() })

		Convey("Then an empty log has no latest entry", func() {
			_, err := h.Latest(ctx)
			So(errors.Is(err, repository.ErrNoDataset), ShouldBeTrue)
			list, err := h.List(ctx)
			So(err, ShouldBeNil)
			So(list, ShouldBeEmpty)
		})

		Convey("When five uploads are appended", func() {
			base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
			var evicted []types.HistoryEntry
			for i := 1; i <= 5; i++ {
				ev, err := h.Append(ctx, entry(i, base.Add(time.Duration(i)*time.Minute)))
				So(err, ShouldBeNil)
				evicted = append(evicted, ev...)
			}

			Convey("Then the oldest two were evicted in order", func() {
				So(len(evicted), ShouldEqual, 2)
				So(evicted[0].ID, ShouldEqual, "id-1")
				So(evicted[1].ID, ShouldEqual, "id-2")
			})

			Convey("Then the list is newest first with all fields", func() {
				list, err := h.List(ctx)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 3)
				So(list[0], ShouldResemble, entry(5, base.Add(5*time.Minute)))
				So(list[2].ID, ShouldEqual, "id-3")
			})

			Convey("Then latest is the newest upload", func() {
				latest, err := h.Latest(ctx)
				So(err, ShouldBeNil)
				So(latest.ID, ShouldEqual, "id-5")
			})

			Convey("Then clear returns and deletes every entry", func() {
				removed, err := h.Clear(ctx)
				So(err, ShouldBeNil)
				So(len(removed), ShouldEqual, 3)
				list, err := h.List(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When two uploads share a timestamp", func() {
			at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
			_, err := h.Append(ctx, entry(1, at))
			So(err, ShouldBeNil)
			_, err = h.Append(ctx, entry(2, at))
			So(err, ShouldBeNil)

			Convey("Then insertion order breaks the tie", func() {
				latest, err := h.Latest(ctx)
				So(err, ShouldBeNil)
				So(latest.ID, ShouldEqual, "id-2")
			})
		})

		Convey("When an id is reused", func() {
			_, err := h.Append(ctx, entry(1, time.Now()))
			So(err, ShouldBeNil)
			_, err = h.Append(ctx, entry(1, time.Now()))

			Convey("Then the append fails", func() {
				So(errors.Is(err, repository.ErrHistory), ShouldBeTrue)
			})
		})
	})
}
