// Package field declares the static rule table for recognized observation
// attributes. A Registry is built once at process start and is immutable
// afterwards, so concurrent lookups need no synchronization.
package field

// Kind is the canonical form a field's value must have after coercion.
type Kind int

// Canonical kinds.
const (
	// Int is a canonical integer. Integral floats and, where the spec opts
	// in, numeric strings coerce to it.
	Int Kind = iota
	// Float is a canonical real number. Integers widen to it.
	Float
	// String is a free string with no domain restriction beyond type.
	String
	// Enum is a string restricted to the spec's Allowed set, compared after
	// trimming and lowercasing.
	Enum
	// Flag is a boolean-as-string field: true/1/1.0 become "1", false/0/0.0
	// become "0".
	Flag
	// Bucket is a range-bucket string such as "[70-80)" or ">200".
	Bucket
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "integer"
	case Float:
		return "real"
	case String:
		return "string"
	case Enum:
		return "enum string"
	case Flag:
		return "binary flag"
	case Bucket:
		return "range bucket"
	default:
		return "unknown"
	}
}

// Spec describes one recognized attribute: its canonical kind, domain
// constraint, and whether its presence is required.
type Spec struct {
	Name     string
	Required bool
	Kind     Kind

	// Allowed lists enum members in normalized (trimmed, lowercased) form.
	// Only meaningful for Enum kinds.
	Allowed []string

	// NonNegative rejects values below zero (count fields).
	NonNegative bool

	// HasRange bounds the value to [Min, Max] inclusive.
	HasRange bool
	Min, Max float64

	// AcceptsString permits numeric strings to coerce into Int/Float.
	// Legacy identifier fields only; nothing in the authoritative
	// registries sets it.
	AcceptsString bool

	// Identifier marks a field whose value keys the stored record. Unlike
	// clinical fields, a null or empty value cannot fall back to
	// missing-at-encoding and is rejected outright.
	Identifier bool
}

// Registry holds the specs for one endpoint in declaration order. Declaration
// order is the order the orchestrator visits fields, so it must stay
// deterministic.
type Registry struct {
	specs  []Spec
	byName map[string]int
}

// NewRegistry builds a Registry from specs, preserving declaration order.
func NewRegistry(specs []Spec) *Registry {
	r := &Registry{
		specs:  specs,
		byName: make(map[string]int, len(specs)),
	}
	for i, s := range specs {
		r.byName[s.Name] = i
	}
	return r
}

// Lookup returns the spec for name, or false when the field is unrecognized.
func (r *Registry) Lookup(name string) (Spec, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// Specs returns the registry's specs in declaration order. The returned slice
// must not be mutated.
func (r *Registry) Specs() []Spec {
	return r.specs
}

// Required returns the names of all required fields in declaration order.
func (r *Registry) Required() []string {
	names := make([]string, 0, len(r.specs))
	for _, s := range r.specs {
		if s.Required {
			names = append(names, s.Name)
		}
	}
	return names
}

// Len returns the number of recognized fields.
func (r *Registry) Len() int {
	return len(r.specs)
}
