package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/readmit/internal/domain/field"
)

// ValidateDomain checks a coerced value against its field's domain
// constraint. Checks are field-local; no cross-field consistency is
// attempted. The value must already be in canonical form.
func ValidateDomain(spec field.Spec, coerced any) *FieldError {
	switch spec.Kind {
	case field.Enum:
		return validateEnum(spec, coerced.(string))
	case field.Bucket:
		return validateBucket(spec, coerced.(string))
	case field.Int:
		return validateNumeric(spec, float64(coerced.(int64)))
	case field.Float:
		return validateNumeric(spec, coerced.(float64))
	default:
		// Flags are fully constrained by coercion; free strings have no domain.
		return nil
	}
}

func validateEnum(spec field.Spec, value string) *FieldError {
	for _, allowed := range spec.Allowed {
		if value == allowed {
			return nil
		}
	}
	return domainError(spec.Name,
		"field %q received %q; allowed values are %s", spec.Name, value, quoteJoin(spec.Allowed))
}

func validateNumeric(spec field.Spec, value float64) *FieldError {
	if spec.NonNegative && value < 0 {
		return domainError(spec.Name, "field %q cannot be negative, received %v", spec.Name, value)
	}
	if spec.HasRange && (value < spec.Min || value > spec.Max) {
		return domainError(spec.Name,
			"field %q outside expected range [%v, %v], received %v", spec.Name, spec.Min, spec.Max, value)
	}
	return nil
}

func validateBucket(spec field.Spec, value string) *FieldError {
	if _, err := ParseBucket(value); err != nil {
		return domainError(spec.Name,
			"field %q received %q; expected a range bucket such as \"[70-80)\" or \">200\"", spec.Name, value)
	}
	return nil
}

// BucketRange is a parsed range-bucket value. Closed buckets look like
// "[70-80)"; open-ended buckets like ">200" set OpenEnded and leave Hi zero.
type BucketRange struct {
	Lo, Hi    float64
	OpenEnded bool
}

// Midpoint returns a representative numeric value for the bucket, used by
// the feature encoder. Open-ended buckets collapse to their lower bound.
func (b BucketRange) Midpoint() float64 {
	if b.OpenEnded {
		return b.Lo
	}
	return (b.Lo + b.Hi) / 2
}

// ParseBucket parses a normalized range-bucket string.
func ParseBucket(s string) (BucketRange, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, ">") {
		lo, err := strconv.ParseFloat(strings.TrimSpace(s[1:]), 64)
		if err != nil {
			return BucketRange{}, fmt.Errorf("invalid open-ended bucket %q", s)
		}
		return BucketRange{Lo: lo, OpenEnded: true}, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, ")") {
		return BucketRange{}, fmt.Errorf("invalid bucket %q", s)
	}
	body := s[1 : len(s)-1]
	parts := strings.SplitN(body, "-", 2)
	if len(parts) != 2 {
		return BucketRange{}, fmt.Errorf("invalid bucket %q", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return BucketRange{}, fmt.Errorf("invalid bucket lower bound %q", s)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return BucketRange{}, fmt.Errorf("invalid bucket upper bound %q", s)
	}
	if lo >= hi {
		return BucketRange{}, fmt.Errorf("bucket %q has empty range", s)
	}
	return BucketRange{Lo: lo, Hi: hi}, nil
}
