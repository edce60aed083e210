package dedupe_test

import (
	"context"
	"sync"
	"testing"

	dedupe "github.com/okian/readmit/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording admission IDs", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the ID is new", func() {
				seen := d.SeenAndRecord(context.Background(), 1001)

				Convey("Then it should return false and record the ID", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the ID was already seen", func() {
				d.SeenAndRecord(context.Background(), 1001)
				seen := d.SeenAndRecord(context.Background(), 1001)

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And multiple IDs are recorded", func() {
				ids := []int64{1, 2, 3, 4, 5}
				for _, id := range ids {
					So(d.SeenAndRecord(context.Background(), id), ShouldBeFalse)
				}

				Convey("Then all IDs should be recorded", func() {
					So(d.Size(), ShouldEqual, int64(len(ids)))
					for _, id := range ids {
						So(d.SeenAndRecord(context.Background(), id), ShouldBeTrue)
					}
				})
			})
		})

		Convey("When unrecording IDs", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the ID exists", func() {
				d.SeenAndRecord(context.Background(), 7)
				So(d.Size(), ShouldEqual, 1)

				d.Unrecord(context.Background(), 7)

				Convey("Then it should be removed and retryable", func() {
					So(d.Size(), ShouldEqual, 0)
					So(d.SeenAndRecord(context.Background(), 7), ShouldBeFalse)
				})
			})

			Convey("And the ID doesn't exist", func() {
				d.Unrecord(context.Background(), 999)

				Convey("Then it should not affect the size", func() {
					So(d.Size(), ShouldEqual, 0)
				})
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			Convey("And the deduper is at capacity", func() {
				for _, id := range []int64{1, 2, 3} {
					So(d.SeenAndRecord(context.Background(), id), ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, 3)

				seen := d.SeenAndRecord(context.Background(), 4)

				Convey("Then it should evict the oldest and add the new one", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					// ID 1 was evicted first (FIFO), so it reads as new.
					So(d.SeenAndRecord(context.Background(), 1), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					// The newest ID is still tracked.
					So(d.SeenAndRecord(context.Background(), 4), ShouldBeTrue)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

			Convey("And many IDs are recorded", func() {
				const numIDs = 1000
				for i := int64(0); i < numIDs; i++ {
					So(d.SeenAndRecord(context.Background(), i), ShouldBeFalse)
				}

				Convey("Then all IDs should be recorded without eviction", func() {
					So(d.Size(), ShouldEqual, int64(numIDs))
					for i := int64(0); i < numIDs; i++ {
						So(d.SeenAndRecord(context.Background(), i), ShouldBeTrue)
					}
				})
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10000))
		const numGoroutines = 10
		const idsPerGoroutine = 100

		Convey("When multiple goroutines record IDs concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(base int64) {
					defer wg.Done()
					for j := int64(0); j < idsPerGoroutine; j++ {
						d.SeenAndRecord(context.Background(), base*idsPerGoroutine+j)
					}
				}(int64(i))
			}
			wg.Wait()

			Convey("Then all IDs should be recorded exactly once", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*idsPerGoroutine))
			})
		})

		Convey("When multiple goroutines unrecord IDs concurrently", func() {
			const numIDs = 500
			for i := int64(0); i < numIDs; i++ {
				d.SeenAndRecord(context.Background(), i)
			}
			So(d.Size(), ShouldEqual, int64(numIDs))

			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(g int64) {
					defer wg.Done()
					per := int64(numIDs / numGoroutines)
					for j := int64(0); j < per; j++ {
						d.Unrecord(context.Background(), g*per+j)
					}
				}(int64(i))
			}
			wg.Wait()

			Convey("Then all IDs should be unrecorded", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestDedupeEdgeCases(t *testing.T) {
	Convey("Given a deduper with edge cases", t, func() {
		Convey("When recording zero and negative IDs", func() {
			d := dedupe.NewInMemoryDeduper()

			So(d.SeenAndRecord(context.Background(), 0), ShouldBeFalse)
			So(d.SeenAndRecord(context.Background(), -5), ShouldBeFalse)

			Convey("Then they should be tracked like any other ID", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(context.Background(), 0), ShouldBeTrue)
				So(d.SeenAndRecord(context.Background(), -5), ShouldBeTrue)
			})
		})

		Convey("When an evicted slot was previously unrecorded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))

			d.SeenAndRecord(context.Background(), 1)
			d.SeenAndRecord(context.Background(), 2)
			d.Unrecord(context.Background(), 1)

			Convey("Then eviction should not double-decrement the size", func() {
				// Wrapping past the stale slot for ID 1 must not drop below
				// the live entry count.
				d.SeenAndRecord(context.Background(), 3)
				d.SeenAndRecord(context.Background(), 4)
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When using max size one", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))

			So(d.SeenAndRecord(context.Background(), 1), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)

			So(d.SeenAndRecord(context.Background(), 2), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)

			Convey("Then the first ID should have been evicted", func() {
				So(d.SeenAndRecord(context.Background(), 1), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When using nil context", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should not panic", func() {
				So(func() { d.SeenAndRecord(nil, 1) }, ShouldNotPanic)
				So(func() { d.Unrecord(nil, 1) }, ShouldNotPanic)
			})
		})

		Convey("When using negative max size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))

			Convey("Then it should be unbounded", func() {
				const numIDs = 1000
				for i := int64(0); i < numIDs; i++ {
					So(d.SeenAndRecord(context.Background(), i), ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, int64(numIDs))
			})
		})
	})
}
