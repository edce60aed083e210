package validate

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/okian/readmit/internal/domain/field"
)

// rawKind classifies the loosely-typed JSON value before coercion.
type rawKind int

const (
	rawNull rawKind = iota
	rawBool
	rawInt
	rawFloat
	rawString
	rawOther
)

func (k rawKind) String() string {
	switch k {
	case rawNull:
		return "null"
	case rawBool:
		return "boolean"
	case rawInt:
		return "integer"
	case rawFloat:
		return "real"
	case rawString:
		return "string"
	default:
		return "unsupported"
	}
}

// classify inspects a decoded JSON value. Numbers decoded with
// json.Decoder.UseNumber arrive as json.Number; values constructed in-process
// may already be Go ints or floats, so those are classified too. Floats
// carrying an integral value still classify as rawFloat; the integral check
// happens during coercion.
func classify(v any) (rawKind, int64, float64, string, bool) {
	switch t := v.(type) {
	case nil:
		return rawNull, 0, 0, "", false
	case bool:
		return rawBool, 0, 0, "", t
	case string:
		return rawString, 0, 0, t, false
	case int:
		return rawInt, int64(t), 0, "", false
	case int64:
		return rawInt, t, 0, "", false
	case float64:
		return rawFloat, 0, t, "", false
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return rawInt, i, 0, "", false
		}
		if f, err := t.Float64(); err == nil {
			return rawFloat, 0, f, "", false
		}
		return rawOther, 0, 0, t.String(), false
	default:
		return rawOther, 0, 0, "", false
	}
}

// Coerce attempts to rewrite a raw JSON value into the spec's canonical form.
// The policy is uniform across fields:
//
//   - a value already in canonical form passes through unchanged (after text
//     normalization), making coercion idempotent;
//   - a real carrying an integral value coerces to integer, a fractional one
//     fails;
//   - numeric strings coerce only when the spec opts in (legacy identifiers);
//   - flag fields map true/1/1.0 to "1" and false/0/0.0 to "0";
//   - everything else is a hard failure naming the field, the received kind,
//     and what the field accepts.
//
// Callers must filter out absent values (nil, empty string) first.
func Coerce(spec field.Spec, raw any) (any, *FieldError) {
	kind, i, f, s, b := classify(raw)

	switch spec.Kind {
	case field.Int:
		return coerceInt(spec, kind, i, f, s)
	case field.Float:
		return coerceFloat(spec, kind, i, f, s)
	case field.Flag:
		return coerceFlag(spec, kind, i, f, s, b)
	case field.String, field.Enum, field.Bucket:
		if kind == rawString {
			return Normalize(s), nil
		}
		return nil, coercionError(spec.Name,
			"field %q received %s value %v; accepts string values", spec.Name, kind, raw)
	default:
		return nil, coercionError(spec.Name, "field %q has no canonical kind", spec.Name)
	}
}

func coerceInt(spec field.Spec, kind rawKind, i int64, f float64, s string) (any, *FieldError) {
	switch kind {
	case rawInt:
		return i, nil
	case rawFloat:
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int64(f), nil
		}
		return nil, coercionError(spec.Name,
			"field %q received real value %v with a fractional part; accepts %s", spec.Name, f, intAccepts(spec))
	case rawString:
		if spec.AcceptsString {
			if parsed, err := strconv.ParseInt(s, 10, 64); err == nil {
				return parsed, nil
			}
			if parsed, err := strconv.ParseFloat(s, 64); err == nil && parsed == math.Trunc(parsed) {
				return int64(parsed), nil
			}
		}
		return nil, coercionError(spec.Name,
			"field %q received string value %q; accepts %s", spec.Name, s, intAccepts(spec))
	default:
		return nil, coercionError(spec.Name,
			"field %q received %s value; accepts %s", spec.Name, kind, intAccepts(spec))
	}
}

func intAccepts(spec field.Spec) string {
	if spec.AcceptsString {
		return "integer values, integral reals, or numeric strings"
	}
	return "integer values or integral reals"
}

func coerceFloat(spec field.Spec, kind rawKind, i int64, f float64, s string) (any, *FieldError) {
	switch kind {
	case rawInt:
		return float64(i), nil
	case rawFloat:
		return f, nil
	case rawString:
		if spec.AcceptsString {
			if parsed, err := strconv.ParseFloat(s, 64); err == nil {
				return parsed, nil
			}
		}
		return nil, coercionError(spec.Name,
			"field %q received string value %q; accepts numeric values", spec.Name, s)
	default:
		return nil, coercionError(spec.Name,
			"field %q received %s value; accepts numeric values", spec.Name, kind)
	}
}

func coerceFlag(spec field.Spec, kind rawKind, i int64, f float64, s string, b bool) (any, *FieldError) {
	switch kind {
	case rawBool:
		if b {
			return "1", nil
		}
		return "0", nil
	case rawInt:
		switch i {
		case 1:
			return "1", nil
		case 0:
			return "0", nil
		}
	case rawFloat:
		switch f {
		case 1.0:
			return "1", nil
		case 0.0:
			return "0", nil
		}
	case rawString:
		// Canonical passthrough keeps coercion idempotent.
		switch Normalize(s) {
		case "1":
			return "1", nil
		case "0":
			return "0", nil
		}
	}
	return nil, coercionError(spec.Name,
		"field %q received %s value; accepts true/false or 0/1", spec.Name, kind)
}
