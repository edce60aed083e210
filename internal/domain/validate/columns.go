package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/readmit/internal/domain/field"
	"github.com/okian/readmit/internal/domain/model"
)

// ColumnResult classifies an observation's key set against a registry.
// A non-empty Missing set is a hard failure; a non-empty Unrecognized set
// alone is a warning. Missing always takes precedence over Unrecognized.
type ColumnResult struct {
	Missing      []string // required columns absent from the observation, sorted
	Unrecognized []string // present columns the registry does not know, sorted
}

// OK reports whether the observation's key set is exactly acceptable.
func (c ColumnResult) OK() bool {
	return len(c.Missing) == 0 && len(c.Unrecognized) == 0
}

// CheckColumns computes required-minus-present and present-minus-recognized
// for one observation.
func CheckColumns(obs model.Observation, reg *field.Registry) ColumnResult {
	var res ColumnResult
	for _, name := range reg.Required() {
		if _, ok := obs[name]; !ok {
			res.Missing = append(res.Missing, name)
		}
	}
	for name := range obs {
		if _, ok := reg.Lookup(name); !ok {
			res.Unrecognized = append(res.Unrecognized, name)
		}
	}
	sort.Strings(res.Missing)
	sort.Strings(res.Unrecognized)
	return res
}

// MissingError formats the hard failure for absent required columns.
func (c ColumnResult) MissingError() *FieldError {
	return &FieldError{
		Field:   c.Missing[0],
		Kind:    ErrMissingField,
		Message: fmt.Sprintf("observation is missing columns: %s", quoteJoin(c.Missing)),
	}
}

// WarningText formats the non-blocking unrecognized-columns warning.
func (c ColumnResult) WarningText() string {
	return fmt.Sprintf("unrecognized columns ignored for scoring: %s", quoteJoin(c.Unrecognized))
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
