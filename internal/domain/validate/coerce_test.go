package validate_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/readmit/internal/domain/field"
	"github.com/okian/readmit/internal/domain/validate"
	"github.com/smartystreets/goconvey/convey"
)

func intSpec(name string) field.Spec {
	return field.Spec{Name: name, Kind: field.Int, NonNegative: true}
}

func TestCoerceInt(t *testing.T) {
	convey.Convey("Given an integer field spec", t, func() {
		spec := intSpec("time_in_hospital")

		convey.Convey("When coercing an integer", func() {
			v, err := validate.Coerce(spec, json.Number("3"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, int64(3))
		})

		convey.Convey("When coercing an integral real", func() {
			v, err := validate.Coerce(spec, json.Number("3.0"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, int64(3))
		})

		convey.Convey("When coercing a Go float64 with integral value", func() {
			v, err := validate.Coerce(spec, 7.0)
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, int64(7))
		})

		convey.Convey("When coercing a fractional real", func() {
			_, err := validate.Coerce(spec, json.Number("3.5"))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Field, convey.ShouldEqual, "time_in_hospital")
			convey.So(err.Error(), convey.ShouldContainSubstring, "transformation not possible")
		})

		convey.Convey("When coercing a string without the opt-in", func() {
			_, err := validate.Coerce(spec, "3")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Reason(), convey.ShouldEqual, "coercion")
		})

		convey.Convey("When coercing a boolean", func() {
			_, err := validate.Coerce(spec, true)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Then coercion should be idempotent", func() {
			once, err := validate.Coerce(spec, json.Number("42"))
			convey.So(err, convey.ShouldBeNil)
			twice, err := validate.Coerce(spec, once)
			convey.So(err, convey.ShouldBeNil)
			convey.So(twice, convey.ShouldEqual, once)
		})
	})

	convey.Convey("Given a legacy identifier spec accepting strings", t, func() {
		spec := field.Spec{Name: "legacy_id", Kind: field.Int, AcceptsString: true}

		convey.Convey("When coercing a numeric string", func() {
			v, err := validate.Coerce(spec, "123")
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, int64(123))
		})

		convey.Convey("When coercing an integral-real string", func() {
			v, err := validate.Coerce(spec, "123.0")
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, int64(123))
		})

		convey.Convey("When coercing a non-numeric string", func() {
			_, err := validate.Coerce(spec, "abc")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "transformation not possible")
		})
	})
}

func TestCoerceFloat(t *testing.T) {
	convey.Convey("Given a real field spec", t, func() {
		spec := field.Spec{Name: "admission_type_code", Kind: field.Float}

		convey.Convey("When coercing an integer", func() {
			v, err := validate.Coerce(spec, json.Number("2"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, 2.0)
		})

		convey.Convey("When coercing a real", func() {
			v, err := validate.Coerce(spec, json.Number("2.5"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, 2.5)
		})

		convey.Convey("When coercing a string", func() {
			_, err := validate.Coerce(spec, "2")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When coercing zero", func() {
			v, err := validate.Coerce(spec, json.Number("0"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, 0.0)
		})
	})
}

func TestCoerceFlag(t *testing.T) {
	convey.Convey("Given a binary flag spec", t, func() {
		spec := field.Spec{Name: "has_prosthesis", Kind: field.Flag}

		convey.Convey("When coercing truthy forms", func() {
			for _, raw := range []any{true, json.Number("1"), json.Number("1.0"), 1, 1.0, "1"} {
				v, err := validate.Coerce(spec, raw)
				convey.So(err, convey.ShouldBeNil)
				convey.So(v, convey.ShouldEqual, "1")
			}
		})

		convey.Convey("When coercing falsy forms", func() {
			for _, raw := range []any{false, json.Number("0"), json.Number("0.0"), 0, 0.0, "0"} {
				v, err := validate.Coerce(spec, raw)
				convey.So(err, convey.ShouldBeNil)
				convey.So(v, convey.ShouldEqual, "0")
			}
		})

		convey.Convey("When coercing anything else", func() {
			for _, raw := range []any{json.Number("2"), "yes", json.Number("0.5")} {
				_, err := validate.Coerce(spec, raw)
				convey.So(err, convey.ShouldNotBeNil)
			}
		})
	})
}

func TestCoerceString(t *testing.T) {
	convey.Convey("Given string-kind specs", t, func() {
		enum := field.Spec{Name: "gender", Kind: field.Enum, Allowed: []string{"male", "female", "unknown/invalid"}}
		free := field.Spec{Name: "payer_code", Kind: field.String}

		convey.Convey("When coercing a padded upper-case value", func() {
			v, err := validate.Coerce(enum, "  MALE ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, "male")
		})

		convey.Convey("When coercing a free string", func() {
			v, err := validate.Coerce(free, "MC")
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, "mc")
		})

		convey.Convey("When coercing a number into a string field", func() {
			_, err := validate.Coerce(enum, json.Number("1"))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "accepts string values")
		})

		convey.Convey("Then normalization should be idempotent", func() {
			once, err := validate.Coerce(enum, " Female ")
			convey.So(err, convey.ShouldBeNil)
			twice, err := validate.Coerce(enum, once)
			convey.So(err, convey.ShouldBeNil)
			convey.So(twice, convey.ShouldEqual, once)
		})
	})
}
