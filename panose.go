// Package panose reads, edits and writes the PANOSE classification in the OS/2 table of TTF, OTF, WOFF, WOFF2 and EOT fonts.
package panose

import (
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/strconv"
)

// Field is one of the ten PANOSE classification digits.
type Field int

// see Field
const (
	FamilyType Field = iota
	SerifStyle
	Weight
	Proportion
	Contrast
	StrokeVariation
	ArmStyle
	Letterform
	Midline
	XHeight
)

// NumFields is the number of PANOSE digits.
const NumFields = 10

// NoField is used by a ValidationError that is not about a single field.
const NoField Field = -1

var fieldNames = [NumFields]string{"familytype", "serifstyle", "weight", "proportion", "contrast", "strokevar", "armstyle", "letterform", "midline", "xheight"}
var fieldLabels = [NumFields]string{"FamilyType", "SerifStyle", "Weight", "Proportion", "Contrast", "StrokeVariation", "ArmStyle", "LetterForm", "Midline", "XHeight"}

// Fields returns all fields in PANOSE order.
func Fields() []Field {
	fields := make([]Field, NumFields)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

// FieldByName returns the field for its short lowercase name, eg. strokevar.
func FieldByName(name string) (Field, bool) {
	for i, fieldName := range fieldNames {
		if fieldName == name {
			return Field(i), true
		}
	}
	return NoField, false
}

// Name returns the short lowercase name, eg. strokevar.
func (f Field) Name() string {
	if f < 0 || NumFields <= f {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// String returns the descriptive name, eg. StrokeVariation.
func (f Field) String() string {
	if f < 0 || NumFields <= f {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldLabels[f]
}

////////////////////////////////////////////////////////////////

// ErrNotInteger is returned when a value is not an integer.
var ErrNotInteger = fmt.Errorf("not an integer")

// ErrOutOfRange is returned when a value does not fit in a byte.
var ErrOutOfRange = fmt.Errorf("must be between 0 and 255")

// ValidationError is returned when a PANOSE definition is malformed.
type ValidationError struct {
	Field Field // NoField if the definition as a whole is malformed
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == NoField {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid %s value '%s': %v", e.Field.Name(), e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func parseValue(s string) (uint8, error) {
	b := []byte(strings.TrimSpace(s))
	v, n := strconv.ParseInt(b)
	if n == 0 && isInteger(b) {
		return 0, ErrOutOfRange // overflows int64
	} else if n == 0 || n != len(b) {
		return 0, ErrNotInteger
	}
	return toUint8(v)
}

func isInteger(b []byte) bool {
	if 0 < len(b) && (b[0] == '+' || b[0] == '-') {
		b = b[1:]
	}
	for _, c := range b {
		if c < '0' || '9' < c {
			return false
		}
	}
	return 0 < len(b)
}

func toUint8(v int64) (uint8, error) {
	if v < 0 || 255 < v {
		return 0, ErrOutOfRange
	}
	return uint8(v), nil
}

func convertValue(v any) (uint8, error) {
	switch v := v.(type) {
	case string:
		return parseValue(v)
	case int:
		return toUint8(int64(v))
	case int8:
		return toUint8(int64(v))
	case int16:
		return toUint8(int64(v))
	case int32:
		return toUint8(int64(v))
	case int64:
		return toUint8(v)
	case uint8:
		return v, nil
	case uint16:
		return toUint8(int64(v))
	case uint32:
		return toUint8(int64(v))
	case uint:
		if 255 < v {
			return 0, ErrOutOfRange
		}
		return uint8(v), nil
	case uint64:
		if 255 < v {
			return 0, ErrOutOfRange
		}
		return uint8(v), nil
	}
	return 0, ErrNotInteger
}

////////////////////////////////////////////////////////////////

// Record is a PANOSE definition where every field is either unset, meaning the font's value is kept, or set. Zero is a valid set value.
type Record struct {
	values [NumFields]uint8
	set    [NumFields]bool
}

// NewRecord returns a record with the given fields set. Values may be any integer type or a string holding an integer, nil values are left unset.
func NewRecord(values map[Field]any) (Record, error) {
	r := Record{}
	for f := range values {
		if f < 0 || NumFields <= f {
			return Record{}, &ValidationError{f, fmt.Sprint(values[f]), fmt.Errorf("unknown field %d", int(f))}
		}
	}
	for f := Field(0); f < NumFields; f++ {
		v := values[f]
		if v == nil {
			continue
		}
		b, err := convertValue(v)
		if err != nil {
			return Record{}, &ValidationError{f, fmt.Sprint(v), err}
		}
		r.values[f] = b
		r.set[f] = true
	}
	return r, nil
}

// ParseRecord parses a comma separated list of exactly ten integers, eg. 2,11,5,2,4,5,4,2,2,4. All fields of the returned record are set.
func ParseRecord(s string) (Record, error) {
	r := Record{}
	if err := r.SetString(s); err != nil {
		return Record{}, err
	}
	return r, nil
}

// SetString overwrites all fields from a comma separated list of exactly ten integers. The record is unchanged if an error is returned.
func (r *Record) SetString(s string) error {
	tokens := strings.Split(s, ",")
	if len(tokens) != NumFields {
		return &ValidationError{NoField, s, fmt.Errorf("incorrect number of panose values. Received %d values and require %d values", len(tokens), NumFields)}
	}

	rec := Record{}
	for i, token := range tokens {
		v, err := parseValue(token)
		if err != nil {
			return &ValidationError{Field(i), token, err}
		}
		rec.values[i] = v
		rec.set[i] = true
	}
	*r = rec
	return nil
}

// Get returns the value of a field and whether it is set.
func (r Record) Get(f Field) (uint8, bool) {
	if f < 0 || NumFields <= f {
		return 0, false
	}
	return r.values[f], r.set[f]
}

// IsEmpty returns true if no field is set.
func (r Record) IsEmpty() bool {
	for _, set := range r.set {
		if set {
			return false
		}
	}
	return true
}

// Apply writes the set fields into the font's PANOSE values and returns p. Fields that are set to zero are skipped as if unset, use ApplyStrict to write zeros.
func (r Record) Apply(p *Panose) *Panose {
	for f := Field(0); f < NumFields; f++ {
		if v, ok := r.Get(f); ok && v != 0 {
			p.Set(f, v)
		}
	}
	return p
}

// ApplyStrict writes all set fields, including zeros, into the font's PANOSE values and returns p.
func (r Record) ApplyStrict(p *Panose) *Panose {
	for f := Field(0); f < NumFields; f++ {
		if v, ok := r.Get(f); ok {
			p.Set(f, v)
		}
	}
	return p
}

func (r Record) String() string {
	sb := strings.Builder{}
	sb.WriteString("panose{")
	for f := Field(0); f < NumFields; f++ {
		if f != 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.Name())
		sb.WriteByte('=')
		if v, ok := r.Get(f); ok {
			fmt.Fprintf(&sb, "%d", v)
		} else {
			sb.WriteString("unset")
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
