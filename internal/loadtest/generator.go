package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/okian/readmit/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	patientIDDivisor   = 100000
	severityDivisor    = 4
)

// Constants for clinical value generation ranges.
const (
	routineStayMin      = 1
	routineStayRange    = 4
	extendedStayMin     = 5
	extendedStayRange   = 10
	hemoglobinNormalMin = 11.0
	hemoglobinNormalRng = 5.0
	hemoglobinLowMin    = 6.0
	hemoglobinLowRange  = 5.0
)

// Constants for admission severity cases.
const (
	caseRoutineAdmission  = 0
	caseChronicAdmission  = 1
	caseAcuteAdmission    = 2
	caseCriticalAdmission = 3
)

// Candidate values for the categorical observation fields.
var (
	genders      = []string{"Male", "Female"}
	ageBuckets   = []string{"[0-10)", "[10-20)", "[20-30)", "[30-40)", "[40-50)", "[50-60)", "[60-70)", "[70-80)", "[80-90)", "[90-100)"}
	weights      = []string{"[0-25)", "[25-50)", "[50-75)", "[75-100)", "[100-125)", "[125-150)", "[150-175)", "[175-200)", ">200"}
	payerCodes   = []string{"MC", "MD", "HM", "BC", "SP", "CP", "UN", "CM"}
	specialties  = []string{"Cardiology", "InternalMedicine", "Family/GeneralPractice", "Surgery-General", "Emergency/Trauma", "Orthopedics", "Nephrology"}
	vaccinations = []string{"Complete", "Incomplete", "None"}
	diagCodes    = []string{"428", "486", "414", "410", "250.01", "250.02", "491", "276", "599", "715", "707", "403", "V45", "E812"}
	bloodTypes   = []string{"O+", "A+", "B+", "O-", "A-", "AB+", "B-", "AB-"}
	gluSerums    = []string{"None", "Norm", ">200", ">300"}
	a1cResults   = []string{"None", "Norm", ">7", ">8"}
	yesNo        = []string{"Yes", "No"}
	changes      = []string{"Ch", "No"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, n) using crypto/rand.
func getRandomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// pick returns a random member of values.
func pick(values []string) string {
	return values[getRandomInt(int64(len(values)))]
}

// generateObservations creates the specified number of observations with
// unique admission IDs. IDs are offset by the wall clock so repeat runs
// against the same database are not all rejected as duplicates.
func generateObservations(ctx context.Context, config *Config, stats *Stats) ([]Observation, error) {
	logger.Get().Info(ctx, "generating observations with unique admission IDs", logger.Int("numAdmissions", config.NumAdmissions))

	observations := make([]Observation, config.NumAdmissions)
	baseID := time.Now().Unix() * int64(patientIDDivisor)

	type genResult struct {
		index int
		obs   Observation
		err   error
	}

	resultChan := make(chan genResult, config.NumAdmissions)

	workerCount := minInt(config.Workers, config.NumAdmissions)
	perWorker := config.NumAdmissions / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumAdmissions // Last worker gets the remainder
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- genResult{index: i, err: ctx.Err()}
					return
				default:
					obs := generateSingleObservation(baseID + int64(i))
					resultChan <- genResult{index: i, obs: obs, err: nil}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumAdmissions; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during observation generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate observation %d: %w", result.index, result.err)
			}
			observations[result.index] = result.obs
		}
	}

	stats.ObservationsGenerated = len(observations)
	logger.Get().Info(ctx, "generated observations successfully", logger.Int("count", len(observations)))

	return observations, nil
}

// generateSingleObservation creates one valid observation for the given
// admission ID, with clinical values drawn from a severity-varied
// distribution.
func generateSingleObservation(admissionID int64) Observation {
	severity := getRandomInt(severityDivisor)

	timeInHospital := routineStayMin + getRandomInt(routineStayRange)
	numLabProcedures := 10 + getRandomInt(40)
	numMedications := 5 + getRandomInt(15)
	numberInpatient := int64(0)
	numberEmergency := int64(0)
	hemoglobin := hemoglobinNormalMin + getRandomFloat()*hemoglobinNormalRng

	switch severity {
	case caseRoutineAdmission:
		// Defaults above: short stay, no prior visits.
	case caseChronicAdmission:
		numberInpatient = getRandomInt(3)
		numMedications = 10 + getRandomInt(20)
	case caseAcuteAdmission:
		timeInHospital = extendedStayMin + getRandomInt(extendedStayRange)
		numberEmergency = getRandomInt(4)
	case caseCriticalAdmission:
		timeInHospital = extendedStayMin + getRandomInt(extendedStayRange)
		numberInpatient = 1 + getRandomInt(5)
		numberEmergency = 1 + getRandomInt(3)
		numLabProcedures = 40 + getRandomInt(40)
		hemoglobin = hemoglobinLowMin + getRandomFloat()*hemoglobinLowRange
	}

	return Observation{
		"admission_id":                admissionID,
		"patient_id":                  getRandomInt(patientIDDivisor),
		"gender":                      pick(genders),
		"age":                         pick(ageBuckets),
		"weight":                      pick(weights),
		"admission_type_code":         1 + getRandomInt(8),
		"discharge_disposition_code":  1 + getRandomInt(29),
		"admission_source_code":       1 + getRandomInt(25),
		"time_in_hospital":            timeInHospital,
		"payer_code":                  pick(payerCodes),
		"medical_specialty":           pick(specialties),
		"has_prosthesis":              getRandomInt(2) == 1,
		"complete_vaccination_status": pick(vaccinations),
		"num_lab_procedures":          numLabProcedures,
		"num_procedures":              getRandomInt(6),
		"num_medications":             numMedications,
		"number_outpatient":           getRandomInt(3),
		"number_emergency":            numberEmergency,
		"number_inpatient":            numberInpatient,
		"diag_1":                      pick(diagCodes),
		"diag_2":                      pick(diagCodes),
		"diag_3":                      pick(diagCodes),
		"number_diagnoses":            1 + getRandomInt(15),
		"blood_type":                  pick(bloodTypes),
		"hemoglobin_level":            hemoglobin,
		"blood_transfusion":           getRandomInt(2) == 1,
		"max_glu_serum":               pick(gluSerums),
		"A1Cresult":                   pick(a1cResults),
		"diuretics":                   pick(yesNo),
		"insulin":                     pick(yesNo),
		"change":                      pick(changes),
		"diabetesMed":                 pick(yesNo),
	}
}

// admissionIDOf extracts the admission ID from a generated observation.
func admissionIDOf(obs Observation) int64 {
	id, _ := obs["admission_id"].(int64)
	return id
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// formatID renders an admission ID for log output.
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
