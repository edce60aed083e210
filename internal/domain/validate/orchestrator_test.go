package validate_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/readmit/internal/domain/field"
	"github.com/okian/readmit/internal/domain/model"
	"github.com/okian/readmit/internal/domain/validate"
	"github.com/smartystreets/goconvey/convey"
)

// validObservation returns a fully valid observation covering all 32
// recognized predict fields.
func validObservation() model.Observation {
	return model.Observation{
		"admission_id":                json.Number("7"),
		"patient_id":                  json.Number("1001"),
		"gender":                      "Female",
		"age":                         "[70-80)",
		"weight":                      ">200",
		"admission_type_code":         json.Number("1"),
		"discharge_disposition_code":  json.Number("1.0"),
		"admission_source_code":       json.Number("7"),
		"time_in_hospital":            json.Number("3"),
		"payer_code":                  "MC",
		"medical_specialty":           "Cardiology",
		"has_prosthesis":              false,
		"complete_vaccination_status": "Complete",
		"num_lab_procedures":          json.Number("45"),
		"num_procedures":              json.Number("1"),
		"num_medications":             json.Number("15"),
		"number_outpatient":           json.Number("0"),
		"number_emergency":            json.Number("0"),
		"number_inpatient":            json.Number("0"),
		"diag_1":                      "428",
		"diag_2":                      "250.01",
		"diag_3":                      "V45",
		"number_diagnoses":            json.Number("9"),
		"blood_type":                  "O+",
		"hemoglobin_level":            json.Number("12.5"),
		"blood_transfusion":           false,
		"max_glu_serum":               "None",
		"A1Cresult":                   ">7",
		"diuretics":                   "No",
		"insulin":                     "Yes",
		"change":                      "Ch",
		"diabetesMed":                 "Yes",
	}
}

func TestOrchestratorAccepts(t *testing.T) {
	convey.Convey("Given the predict orchestrator", t, func() {
		orch := validate.New(field.Predict())

		convey.Convey("When running a fully valid observation", func() {
			obs := validObservation()
			verdict := orch.Run(obs)

			convey.Convey("Then it should be accepted without warning", func() {
				convey.So(verdict.Status, convey.ShouldEqual, validate.Accepted)
				convey.So(verdict.Warning, convey.ShouldBeEmpty)
				convey.So(verdict.Err, convey.ShouldBeNil)
			})

			convey.Convey("Then values should be normalized in place", func() {
				convey.So(verdict.Observation["gender"], convey.ShouldEqual, "female")
				convey.So(verdict.Observation["time_in_hospital"], convey.ShouldEqual, int64(3))
				convey.So(verdict.Observation["discharge_disposition_code"], convey.ShouldEqual, 1.0)
				convey.So(verdict.Observation["has_prosthesis"], convey.ShouldEqual, "0")
				convey.So(verdict.Observation["blood_type"], convey.ShouldEqual, "o+")
				convey.So(verdict.Observation["admission_id"], convey.ShouldEqual, int64(7))
			})
		})

		convey.Convey("When an integral real arrives for a count field", func() {
			obs := validObservation()
			obs["time_in_hospital"] = json.Number("3.0")
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Accepted)
			convey.So(verdict.Observation["time_in_hospital"], convey.ShouldEqual, int64(3))
		})

		convey.Convey("When a padded upper-case enum value arrives", func() {
			obs := validObservation()
			obs["gender"] = "  MALE "
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Accepted)
			convey.So(verdict.Observation["gender"], convey.ShouldEqual, "male")
		})

		convey.Convey("When a present field carries no value", func() {
			obs := validObservation()
			obs["medical_specialty"] = nil
			obs["payer_code"] = ""
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Accepted)
			convey.So(verdict.Observation["medical_specialty"], convey.ShouldBeNil)
		})

		convey.Convey("When a numeric-coded field carries zero", func() {
			obs := validObservation()
			obs["admission_type_code"] = json.Number("0")
			verdict := orch.Run(obs)

			convey.Convey("Then zero is a real value, not an absence marker", func() {
				convey.So(verdict.Status, convey.ShouldEqual, validate.Accepted)
				convey.So(verdict.Observation["admission_type_code"], convey.ShouldEqual, 0.0)
			})
		})
	})
}

func TestOrchestratorWarns(t *testing.T) {
	convey.Convey("Given the predict orchestrator", t, func() {
		orch := validate.New(field.Predict())

		convey.Convey("When one unrecognized column is present", func() {
			obs := validObservation()
			obs["favourite_color"] = "blue"
			verdict := orch.Run(obs)

			convey.Convey("Then it should be accepted with a warning, not rejected", func() {
				convey.So(verdict.Status, convey.ShouldEqual, validate.AcceptedWithWarning)
				convey.So(verdict.Warning, convey.ShouldContainSubstring, `"favourite_color"`)
				convey.So(verdict.Err, convey.ShouldBeNil)
			})

			convey.Convey("Then the extra key should survive untouched", func() {
				convey.So(verdict.Observation["favourite_color"], convey.ShouldEqual, "blue")
			})
		})

		convey.Convey("When columns are both missing and unrecognized", func() {
			obs := validObservation()
			delete(obs, "gender")
			obs["favourite_color"] = "blue"
			verdict := orch.Run(obs)

			convey.Convey("Then the missing-column failure should take precedence", func() {
				convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
				convey.So(errors.Is(verdict.Err, validate.ErrMissingField), convey.ShouldBeTrue)
				convey.So(verdict.Err.Error(), convey.ShouldContainSubstring, `"gender"`)
			})
		})
	})
}

func TestOrchestratorRejects(t *testing.T) {
	convey.Convey("Given the predict orchestrator", t, func() {
		orch := validate.New(field.Predict())

		convey.Convey("When each required field is removed in turn", func() {
			for _, name := range field.Predict().Required() {
				obs := validObservation()
				delete(obs, name)
				verdict := orch.Run(obs)

				convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
				convey.So(errors.Is(verdict.Err, validate.ErrMissingField), convey.ShouldBeTrue)
				convey.So(verdict.Err.Error(), convey.ShouldContainSubstring, name)
			}
		})

		convey.Convey("When a count field is negative", func() {
			obs := validObservation()
			obs["time_in_hospital"] = json.Number("-1")
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
			convey.So(verdict.Err.Field, convey.ShouldEqual, "time_in_hospital")
			convey.So(verdict.Err.Error(), convey.ShouldContainSubstring, "cannot be negative")
		})

		convey.Convey("When an enum value is outside its set", func() {
			obs := validObservation()
			obs["gender"] = "other"
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
			convey.So(verdict.Err.Field, convey.ShouldEqual, "gender")
			convey.So(verdict.Err.Error(), convey.ShouldContainSubstring, `"male", "female", "unknown/invalid"`)
		})

		convey.Convey("When a fractional real arrives for an integer field", func() {
			obs := validObservation()
			obs["num_medications"] = json.Number("15.5")
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
			convey.So(errors.Is(verdict.Err, validate.ErrTypeCoercion), convey.ShouldBeTrue)
		})

		convey.Convey("When multiple fields are invalid", func() {
			obs := validObservation()
			obs["num_procedures"] = json.Number("-3")
			obs["insulin"] = "maybe"
			verdict := orch.Run(obs)

			convey.Convey("Then only the first failure in registry order is reported", func() {
				convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
				convey.So(verdict.Err.Field, convey.ShouldEqual, "num_procedures")
			})
		})

		convey.Convey("When admission_id is present but null", func() {
			obs := validObservation()
			obs["admission_id"] = nil
			verdict := orch.Run(obs)

			convey.Convey("Then the identifier should be rejected, not treated as missing-at-encoding", func() {
				convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
				convey.So(verdict.Err.Field, convey.ShouldEqual, "admission_id")
				convey.So(errors.Is(verdict.Err, validate.ErrMissingField), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When admission_id is an empty string", func() {
			obs := validObservation()
			obs["admission_id"] = "  "
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
			convey.So(verdict.Err.Field, convey.ShouldEqual, "admission_id")
		})

		convey.Convey("When hemoglobin is out of range", func() {
			obs := validObservation()
			obs["hemoglobin_level"] = json.Number("120")
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
			convey.So(verdict.Err.Field, convey.ShouldEqual, "hemoglobin_level")
		})
	})
}

func TestUpdateOrchestrator(t *testing.T) {
	convey.Convey("Given the update orchestrator", t, func() {
		orch := validate.New(field.Update())

		convey.Convey("When running a valid update payload", func() {
			obs := model.Observation{
				"admission_id": json.Number("7"),
				"readmitted":   " YES ",
			}
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Accepted)
			convey.So(verdict.Observation["admission_id"], convey.ShouldEqual, int64(7))
			convey.So(verdict.Observation["readmitted"], convey.ShouldEqual, "yes")
		})

		convey.Convey("When readmitted has an invalid value", func() {
			obs := model.Observation{
				"admission_id": json.Number("7"),
				"readmitted":   "perhaps",
			}
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
			convey.So(verdict.Err.Field, convey.ShouldEqual, "readmitted")
		})

		convey.Convey("When admission_id is missing", func() {
			obs := model.Observation{"readmitted": "yes"}
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
			convey.So(errors.Is(verdict.Err, validate.ErrMissingField), convey.ShouldBeTrue)
		})

		convey.Convey("When admission_id is present but null", func() {
			obs := model.Observation{
				"admission_id": nil,
				"readmitted":   "yes",
			}
			verdict := orch.Run(obs)

			convey.So(verdict.Status, convey.ShouldEqual, validate.Rejected)
			convey.So(verdict.Err.Field, convey.ShouldEqual, "admission_id")
			convey.So(errors.Is(verdict.Err, validate.ErrMissingField), convey.ShouldBeTrue)
		})
	})
}
