package scoring

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/okian/readmit/internal/domain/field"
	"github.com/okian/readmit/internal/domain/model"
	"github.com/okian/readmit/internal/domain/validate"
)

// Identifier columns are persisted but never fed to the model.
var identifierColumns = map[string]bool{
	"admission_id": true,
	"patient_id":   true,
}

// hashCardinality bounds the feature-hashed encoding of free-text columns.
const hashCardinality = 101

// FeatureColumns returns the model feature columns in registry order: every
// recognized predict field except the identifiers.
func FeatureColumns() []string {
	specs := field.Predict().Specs()
	cols := make([]string, 0, len(specs))
	for _, s := range specs {
		if !identifierColumns[s.Name] {
			cols = append(cols, s.Name)
		}
	}
	return cols
}

// Encode turns a normalized observation into a feature vector in the given
// column order. Absent values (nil or empty string) encode as zero, matching
// the training pipeline's missing-to-zero convention.
func Encode(obs model.Observation, features []string) ([]float32, error) {
	vector := make([]float32, len(features))
	for i, name := range features {
		spec, ok := field.Predict().Lookup(name)
		if !ok {
			return nil, fmt.Errorf("scoring: unknown feature column %q", name)
		}
		v, err := encodeOne(spec, obs[name])
		if err != nil {
			return nil, err
		}
		vector[i] = v
	}
	return vector, nil
}

func encodeOne(spec field.Spec, value any) (float32, error) {
	if value == nil {
		return 0, nil
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return 0, nil
	}

	switch spec.Kind {
	case field.Int:
		v, ok := value.(int64)
		if !ok {
			return 0, fmt.Errorf("scoring: feature %q not in canonical form (%T)", spec.Name, value)
		}
		return float32(v), nil

	case field.Float:
		v, ok := value.(float64)
		if !ok {
			return 0, fmt.Errorf("scoring: feature %q not in canonical form (%T)", spec.Name, value)
		}
		return float32(v), nil

	case field.Flag:
		if value == "1" {
			return 1, nil
		}
		return 0, nil

	case field.Enum:
		s, ok := value.(string)
		if !ok {
			return 0, fmt.Errorf("scoring: feature %q not in canonical form (%T)", spec.Name, value)
		}
		// Ordinal index with zero reserved for missing.
		for i, allowed := range spec.Allowed {
			if s == allowed {
				return float32(i + 1), nil
			}
		}
		return 0, nil

	case field.Bucket:
		s, ok := value.(string)
		if !ok {
			return 0, fmt.Errorf("scoring: feature %q not in canonical form (%T)", spec.Name, value)
		}
		b, err := validate.ParseBucket(s)
		if err != nil {
			return 0, nil
		}
		return float32(b.Midpoint()), nil

	case field.String:
		s, ok := value.(string)
		if !ok {
			return 0, fmt.Errorf("scoring: feature %q not in canonical form (%T)", spec.Name, value)
		}
		if strings.HasPrefix(spec.Name, "diag_") {
			return float32(DiagnosisBucket(s)), nil
		}
		return hashFeature(s), nil

	default:
		return 0, fmt.Errorf("scoring: feature %q has unsupported kind", spec.Name)
	}
}

// hashFeature maps a free-text value onto a bounded numeric range. The model
// was trained with the same hashing, so the exact function matters less than
// its stability.
func hashFeature(s string) float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return float32(h.Sum32() % hashCardinality)
}

// Diagnosis buckets, ordered; zero is the catch-all.
const (
	diagOther = iota
	diagCirculatory
	diagRespiratory
	diagDigestive
	diagDiabetes
	diagInjury
	diagMusculoskeletal
	diagGenitourinary
	diagNeoplasms
)

// DiagnosisBucket maps an ICD-9 code string to its clinical bucket. V- and
// E-prefixed codes and anything unparsable fall into the catch-all. This is
// the one feature rule that cannot be tabularized in the registry.
func DiagnosisBucket(code string) int {
	code = strings.TrimSpace(code)
	if code == "" {
		return diagOther
	}
	if c := code[0]; c == 'v' || c == 'V' || c == 'e' || c == 'E' {
		return diagOther
	}

	n, err := strconv.ParseFloat(code, 64)
	if err != nil {
		return diagOther
	}

	switch {
	case n >= 250 && n < 251:
		return diagDiabetes
	case (n >= 390 && n <= 459) || (n >= 785 && n < 786):
		return diagCirculatory
	case (n >= 460 && n <= 519) || (n >= 786 && n < 787):
		return diagRespiratory
	case (n >= 520 && n <= 579) || (n >= 787 && n < 788):
		return diagDigestive
	case n >= 800 && n <= 999:
		return diagInjury
	case n >= 710 && n <= 739:
		return diagMusculoskeletal
	case (n >= 580 && n <= 629) || (n >= 788 && n < 789):
		return diagGenitourinary
	case n >= 140 && n <= 239:
		return diagNeoplasms
	default:
		return diagOther
	}
}
