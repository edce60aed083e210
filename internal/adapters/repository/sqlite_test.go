package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/readmit/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLiteStore(t *testing.T) {
	Convey("Given a SQLite store on a fresh database", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "predictions.db")
		store, err := repository.NewSQLiteStore(path)
		So(err, ShouldBeNil)
		defer store.Close()

		Convey("When saving and reading a record", func() {
			rec := newRecord(1001, true, 0.81)
			So(store.Save(ctx, rec), ShouldBeNil)

			got, err := store.GetByID(ctx, 1001)

			Convey("Then the round trip should preserve the record", func() {
				So(err, ShouldBeNil)
				So(got.AdmissionID, ShouldEqual, rec.AdmissionID)
				So(got.Observation, ShouldEqual, rec.Observation)
				So(got.Predicted, ShouldBeTrue)
				So(got.Proba, ShouldEqual, 0.81)
				So(got.Label, ShouldBeNil)
			})
		})

		Convey("When inserting a duplicate admission ID", func() {
			So(store.Save(ctx, newRecord(1001, true, 0.81)), ShouldBeNil)
			err := store.Save(ctx, newRecord(1001, false, 0.2))

			Convey("Then the primary key should refuse it as ErrDuplicateID", func() {
				So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When reading an unknown ID", func() {
			_, err := store.GetByID(ctx, 404)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When setting labels", func() {
			So(store.Save(ctx, newRecord(1001, true, 0.81)), ShouldBeNil)

			Convey("And the record exists", func() {
				rec, err := store.SetLabel(ctx, 1001, false)

				So(err, ShouldBeNil)
				So(rec.Label, ShouldNotBeNil)
				So(*rec.Label, ShouldBeFalse)

				Convey("And a second update overwrites the first", func() {
					rec, err := store.SetLabel(ctx, 1001, true)
					So(err, ShouldBeNil)
					So(*rec.Label, ShouldBeTrue)
				})
			})

			Convey("And the record does not exist", func() {
				_, err := store.SetLabel(ctx, 404, true)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When reopening the database", func() {
			So(store.Save(ctx, newRecord(1001, true, 0.81)), ShouldBeNil)
			_, err := store.SetLabel(ctx, 1001, true)
			So(err, ShouldBeNil)
			So(store.Close(), ShouldBeNil)

			reopened, err := repository.NewSQLiteStore(path)
			So(err, ShouldBeNil)
			defer reopened.Close()

			Convey("Then records and labels should survive the restart", func() {
				So(reopened.Count(ctx), ShouldEqual, 1)

				rec, err := reopened.GetByID(ctx, 1001)
				So(err, ShouldBeNil)
				So(rec.Predicted, ShouldBeTrue)
				So(rec.Label, ShouldNotBeNil)
				So(*rec.Label, ShouldBeTrue)
			})

			Convey("Then a duplicate insert should still be refused", func() {
				err := reopened.Save(ctx, newRecord(1001, false, 0.1))
				So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
			})
		})
	})
}
