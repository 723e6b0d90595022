package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/content-interop/cmis-go/cmis"
)

// Value is one typed property value: a tagged union over the seven property
// data kinds. String, Id, Html and Uri share the string payload but keep
// distinct kind tags; Integer and Decimal are exact-precision (decimals are
// never routed through binary floating point).
type Value struct {
	kind cmis.PropertyType
	str  string
	num  int64
	dec  decimal.Decimal
	b    bool
	t    time.Time
}

func StringValue(s string) Value   { return Value{kind: cmis.PropertyString, str: s} }
func IDValue(s string) Value       { return Value{kind: cmis.PropertyID, str: s} }
func HTMLValue(s string) Value     { return Value{kind: cmis.PropertyHTML, str: s} }
func URIValue(s string) Value      { return Value{kind: cmis.PropertyURI, str: s} }
func IntegerValue(n int64) Value   { return Value{kind: cmis.PropertyInteger, num: n} }
func BooleanValue(b bool) Value    { return Value{kind: cmis.PropertyBoolean, b: b} }
func DateTimeValue(t time.Time) Value { return Value{kind: cmis.PropertyDateTime, t: t} }
func DecimalValue(d decimal.Decimal) Value { return Value{kind: cmis.PropertyDecimal, dec: d} }

// TextValue constructs a value of any of the four text kinds.
func TextValue(kind cmis.PropertyType, s string) (Value, error) {
	switch kind {
	case cmis.PropertyString, cmis.PropertyID, cmis.PropertyHTML, cmis.PropertyURI:
		return Value{kind: kind, str: s}, nil
	}
	return Value{}, fmt.Errorf("property type %s is not text-valued", kind)
}

// Kind returns the data kind tag.
func (v Value) Kind() cmis.PropertyType { return v.kind }

// IsZero reports whether the value was never constructed.
func (v Value) IsZero() bool { return v.kind == "" }

// Text returns the payload of the four text kinds ("" for others).
func (v Value) Text() string { return v.str }

// Integer returns the payload of an Integer value.
func (v Value) Integer() int64 { return v.num }

// Boolean returns the payload of a Boolean value.
func (v Value) Boolean() bool { return v.b }

// Time returns the payload of a DateTime value.
func (v Value) Time() time.Time { return v.t }

// Decimal returns the payload of a Decimal value.
func (v Value) Decimal() decimal.Decimal { return v.dec }

// Equal compares kind and payload. Decimals compare numerically and
// date-times by instant, so values survive a wire round trip even when the
// internal representation differs.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case cmis.PropertyString, cmis.PropertyID, cmis.PropertyHTML, cmis.PropertyURI:
		return v.str == o.str
	case cmis.PropertyInteger:
		return v.num == o.num
	case cmis.PropertyBoolean:
		return v.b == o.b
	case cmis.PropertyDateTime:
		return v.t.Equal(o.t)
	case cmis.PropertyDecimal:
		return v.dec.Equal(o.dec)
	}
	return v.kind == o.kind
}

// String implements fmt.Stringer for logging.
func (v Value) String() string {
	switch v.kind {
	case cmis.PropertyInteger:
		return fmt.Sprintf("%d", v.num)
	case cmis.PropertyBoolean:
		return fmt.Sprintf("%t", v.b)
	case cmis.PropertyDateTime:
		return v.t.Format(time.RFC3339Nano)
	case cmis.PropertyDecimal:
		return v.dec.String()
	default:
		return v.str
	}
}

// ValuesEqual compares two value slices element-wise, distinguishing a nil
// slice (not set) from an empty one.
func ValuesEqual(a, b []Value) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
