package field

// Enum value sets for the admission observation fields. All members are kept
// in normalized (trimmed, lowercased) form; inbound values are normalized
// before membership tests.
var (
	genderValues      = []string{"male", "female", "unknown/invalid"}
	vaccinationValues = []string{"none", "complete", "incomplete"}
	bloodTypeValues   = []string{"o+", "a+", "b+", "o-", "a-", "ab+", "b-", "ab-"}
	gluSerumValues    = []string{"none", "norm", ">200", ">300"}
	a1cResultValues   = []string{"none", "norm", ">8", ">7"}
	yesNoValues       = []string{"yes", "no"}
	changeValues      = []string{"ch", "no"}
)

// hemoglobin is range-checked rather than sign-checked.
const (
	hemoglobinMin = 0
	hemoglobinMax = 100
)

// predictRegistry holds the authoritative rules for the predict endpoint.
// Declaration order here is validation order.
var predictRegistry = NewRegistry([]Spec{
	{Name: "admission_id", Required: true, Kind: Int, Identifier: true},
	{Name: "patient_id", Required: true, Kind: Int},
	{Name: "gender", Required: true, Kind: Enum, Allowed: genderValues},
	{Name: "age", Required: true, Kind: Bucket},
	{Name: "weight", Required: true, Kind: Bucket},
	{Name: "admission_type_code", Required: true, Kind: Float},
	{Name: "discharge_disposition_code", Required: true, Kind: Float},
	{Name: "admission_source_code", Required: true, Kind: Float},
	{Name: "time_in_hospital", Required: true, Kind: Int, NonNegative: true},
	{Name: "payer_code", Required: true, Kind: String},
	{Name: "medical_specialty", Required: true, Kind: String},
	{Name: "has_prosthesis", Required: true, Kind: Flag},
	{Name: "complete_vaccination_status", Required: true, Kind: Enum, Allowed: vaccinationValues},
	{Name: "num_lab_procedures", Required: true, Kind: Int, NonNegative: true},
	{Name: "num_procedures", Required: true, Kind: Int, NonNegative: true},
	{Name: "num_medications", Required: true, Kind: Int, NonNegative: true},
	{Name: "number_outpatient", Required: true, Kind: Int, NonNegative: true},
	{Name: "number_emergency", Required: true, Kind: Int, NonNegative: true},
	{Name: "number_inpatient", Required: true, Kind: Int, NonNegative: true},
	{Name: "diag_1", Required: true, Kind: String},
	{Name: "diag_2", Required: true, Kind: String},
	{Name: "diag_3", Required: true, Kind: String},
	{Name: "number_diagnoses", Required: true, Kind: Int, NonNegative: true},
	{Name: "blood_type", Required: true, Kind: Enum, Allowed: bloodTypeValues},
	{Name: "hemoglobin_level", Required: true, Kind: Float, HasRange: true, Min: hemoglobinMin, Max: hemoglobinMax},
	{Name: "blood_transfusion", Required: true, Kind: Flag},
	{Name: "max_glu_serum", Required: true, Kind: Enum, Allowed: gluSerumValues},
	{Name: "A1Cresult", Required: true, Kind: Enum, Allowed: a1cResultValues},
	{Name: "diuretics", Required: true, Kind: Enum, Allowed: yesNoValues},
	{Name: "insulin", Required: true, Kind: Enum, Allowed: yesNoValues},
	{Name: "change", Required: true, Kind: Enum, Allowed: changeValues},
	{Name: "diabetesMed", Required: true, Kind: Enum, Allowed: yesNoValues},
})

// updateRegistry holds the rules for the label-update endpoint.
var updateRegistry = NewRegistry([]Spec{
	{Name: "admission_id", Required: true, Kind: Int, Identifier: true},
	{Name: "readmitted", Required: true, Kind: Enum, Allowed: yesNoValues},
})

// Predict returns the registry for the predict endpoint.
func Predict() *Registry {
	return predictRegistry
}

// Update returns the registry for the update endpoint.
func Update() *Registry {
	return updateRegistry
}
