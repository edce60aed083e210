package audit_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/readmit/internal/adapters/audit"
	"github.com/okian/readmit/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// captureSink collects written entries for assertions.
type captureSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *captureSink) Write(ctx context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestNewEntry(t *testing.T) {
	Convey("Given a new audit entry", t, func() {
		e := audit.NewEntry(7, audit.ActionPredict, audit.OutcomeAccepted, "")

		Convey("Then it should carry a unique ID and timestamp", func() {
			So(e.ID, ShouldNotBeEmpty)
			So(e.AdmissionID, ShouldEqual, 7)
			So(e.Action, ShouldEqual, "predict")
			So(e.Outcome, ShouldEqual, "accepted")
			So(e.CreatedAt.IsZero(), ShouldBeFalse)

			other := audit.NewEntry(7, audit.ActionPredict, audit.OutcomeAccepted, "")
			So(other.ID, ShouldNotEqual, e.ID)
		})

		Convey("Then payloads should be empty unless attached", func() {
			So(e.Request, ShouldBeEmpty)
			So(e.Response, ShouldBeEmpty)
		})
	})

	Convey("Given an entry with request and response payloads", t, func() {
		e := audit.NewEntry(7, audit.ActionPredict, audit.OutcomeAccepted, "",
			audit.WithRequest([]byte(`{"admission_id":7}`)),
			audit.WithResponse([]byte(`{"readmitted":"No"}`)),
		)

		Convey("Then both payloads should be carried", func() {
			So(e.Request, ShouldEqual, `{"admission_id":7}`)
			So(e.Response, ShouldEqual, `{"readmitted":"No"}`)
		})
	})
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given an in-memory audit queue", t, func() {
		ctx := context.Background()

		Convey("When enqueuing within capacity", func() {
			q := audit.NewInMemoryQueue(audit.WithCapacity(10))
			defer q.Close()

			ok := q.Enqueue(ctx, audit.NewEntry(1, audit.ActionPredict, audit.OutcomeAccepted, ""))

			Convey("Then the entry should be queued", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the queue is full", func() {
			q := audit.NewInMemoryQueue(audit.WithCapacity(2))
			defer q.Close()

			So(q.Enqueue(ctx, audit.NewEntry(1, audit.ActionPredict, audit.OutcomeAccepted, "")), ShouldBeTrue)
			So(q.Enqueue(ctx, audit.NewEntry(2, audit.ActionPredict, audit.OutcomeAccepted, "")), ShouldBeTrue)

			Convey("Then further entries should be dropped, not blocked", func() {
				So(q.Enqueue(ctx, audit.NewEntry(3, audit.ActionPredict, audit.OutcomeAccepted, "")), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is closed", func() {
			q := audit.NewInMemoryQueue(audit.WithCapacity(2))
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue should be refused", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, audit.NewEntry(1, audit.ActionPredict, audit.OutcomeAccepted, "")), ShouldBeFalse)
			})

			Convey("Then closing again should be a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})

		Convey("When dequeuing entries", func() {
			q := audit.NewInMemoryQueue(audit.WithCapacity(4))
			for i := int64(1); i <= 3; i++ {
				So(q.Enqueue(ctx, audit.NewEntry(i, audit.ActionUpdate, audit.OutcomeUpdated, "")), ShouldBeTrue)
			}
			So(q.Close(), ShouldBeNil)

			Convey("Then all queued entries should drain in order", func() {
				var ids []int64
				for e := range q.Dequeue(ctx) {
					ids = append(ids, e.AdmissionID)
				}
				So(ids, ShouldResemble, []int64{1, 2, 3})
			})
		})
	})
}

func TestRecorder(t *testing.T) {
	Convey("Given a recorder draining into a capture sink", t, func() {
		ctx := context.Background()
		q := audit.NewInMemoryQueue(audit.WithCapacity(100))
		sink := &captureSink{}
		rec := audit.NewRecorder(q, sink, audit.WithWorkers(2))
		rec.Start(ctx)

		Convey("When recording entries", func() {
			const numEntries = 20
			for i := int64(0); i < numEntries; i++ {
				rec.Record(ctx, audit.NewEntry(i, audit.ActionPredict, audit.OutcomeAccepted, ""))
			}

			Convey("Then shutdown should drain every entry to the sink", func() {
				So(rec.Shutdown(ctx), ShouldBeNil)
				So(sink.len(), ShouldEqual, numEntries)
			})
		})

		Convey("When recording onto a closed queue", func() {
			So(rec.Shutdown(ctx), ShouldBeNil)

			Convey("Then record should drop silently", func() {
				So(func() {
					rec.Record(ctx, audit.NewEntry(1, audit.ActionPredict, audit.OutcomeAccepted, ""))
				}, ShouldNotPanic)
			})
		})
	})
}

func TestSQLiteSink(t *testing.T) {
	Convey("Given a SQLite audit sink", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "audit.db")
		sink, err := audit.NewSQLiteSink(path)
		So(err, ShouldBeNil)
		defer sink.Close()

		Convey("When writing entries", func() {
			e := audit.NewEntry(7, audit.ActionPredict, audit.OutcomeWarning, `unrecognized columns ignored for scoring: "foo"`,
				audit.WithRequest([]byte(`{"admission_id":7}`)),
				audit.WithResponse([]byte(`{"readmitted":"Yes"}`)),
			)
			So(sink.Write(ctx, e), ShouldBeNil)
			So(sink.Write(ctx, audit.NewEntry(7, audit.ActionUpdate, audit.OutcomeRejected, "readmitted value is invalid")), ShouldBeNil)

			Convey("Then they should be countable by action", func() {
				n, err := sink.CountByAction(ctx, audit.ActionPredict)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				n, err = sink.CountByAction(ctx, audit.ActionUpdate)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})

			Convey("Then they should be countable by outcome", func() {
				n, err := sink.CountByOutcome(ctx, audit.ActionUpdate, audit.OutcomeRejected)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				n, err = sink.CountByOutcome(ctx, audit.ActionUpdate, audit.OutcomeUpdated)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When draining through a recorder end to end", func() {
			q := audit.NewInMemoryQueue(audit.WithCapacity(10))
			rec := audit.NewRecorder(q, sink, audit.WithWorkers(1))
			rec.Start(ctx)

			rec.Record(ctx, audit.NewEntry(1, audit.ActionPredict, audit.OutcomeAccepted, ""))
			rec.Record(ctx, audit.NewEntry(2, audit.ActionPredict, audit.OutcomeRejected, "gender value is invalid"))

			// Recorder closes the sink on shutdown; reopen is not needed
			// because assertions run before Close is observed.
			time.Sleep(50 * time.Millisecond)

			n, err := sink.CountByAction(ctx, audit.ActionPredict)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)

			So(q.Close(), ShouldBeNil)
		})
	})
}
