package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/recruitstat/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDigest(t *testing.T) {
	Convey("Given upload bodies", t, func() {
		a := dedupe.Digest([]byte("序号,姓名\n1,张三\n"))
		b := dedupe.Digest([]byte("序号,姓名\n1,张三\n"))
		c := dedupe.Digest([]byte("序号,姓名\n1,李四\n"))

		Convey("Then equal bytes share a hex sha256 digest", func() {
			So(a, ShouldEqual, b)
			So(a, ShouldNotEqual, c)
			So(len(a), ShouldEqual, 64)
			So(dedupe.Digest(nil), ShouldEqual, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
		})
	})
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a digest is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "digest-1")
			second := d.SeenAndRecord(ctx, "digest-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a rejected upload is unrecorded", func() {
			d.SeenAndRecord(ctx, "digest-1")
			d.Unrecord(ctx, "digest-1")
			d.Unrecord(ctx, "missing")

			Convey("Then the digest can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "digest-1"), ShouldBeFalse)
			})
		})

		Convey("When the history is cleared", func() {
			for i := 0; i < 5; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("digest-%d", i))
			}
			d.Reset(ctx)

			Convey("Then every digest is forgotten", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "digest-3"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"d1", "d2", "d3"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("When a fourth digest arrives", func() {
			So(d.SeenAndRecord(ctx, "d4"), ShouldBeFalse)

			Convey("Then the oldest is evicted and the rest are kept", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "d2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When the middle digest is unrecorded", func() {
			d.Unrecord(ctx, "d2")
			So(d.SeenAndRecord(ctx, "d4"), ShouldBeFalse)

			Convey("Then no eviction is needed", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "d1"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))
		const n = 2000
		for i := 0; i < n; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("digest-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, n)
			So(d.SeenAndRecord(ctx, "digest-0"), ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		const workers = 10
		const perWorker = 100

		Convey("When goroutines race on the same digests", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						if !d.SeenAndRecord(context.Background(), fmt.Sprintf("digest-%d", j)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each digest is new exactly once", func() {
				So(fresh, ShouldEqual, perWorker)
				So(d.Size(), ShouldEqual, perWorker)
			})
		})
	})
}
