package core

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValueType enumerates the scalar types an attribute may hold.
type ValueType int

const (
	ValueTypeRef ValueType = iota
	ValueTypeBoolean
	ValueTypeInstant
	ValueTypeLong
	ValueTypeDouble
	ValueTypeString
	ValueTypeUUID
	ValueTypeKeyword
)

// Storage tags. Each tag is stable on disk; never renumber.
const (
	tagRef     = 0
	tagBoolean = 1
	tagInstant = 4
	tagLong    = 5
	tagDouble  = 6
	tagString  = 10
	tagUUID    = 11
	tagKeyword = 13
)

// Tag returns the stable storage tag for the value type.
func (t ValueType) Tag() int {
	switch t {
	case ValueTypeRef:
		return tagRef
	case ValueTypeBoolean:
		return tagBoolean
	case ValueTypeInstant:
		return tagInstant
	case ValueTypeLong:
		return tagLong
	case ValueTypeDouble:
		return tagDouble
	case ValueTypeString:
		return tagString
	case ValueTypeUUID:
		return tagUUID
	case ValueTypeKeyword:
		return tagKeyword
	default:
		panic(fmt.Sprintf("unknown value type %d", int(t)))
	}
}

// ValueTypeFromTag is the inverse of ValueType.Tag.
func ValueTypeFromTag(tag int) (ValueType, bool) {
	switch tag {
	case tagRef:
		return ValueTypeRef, true
	case tagBoolean:
		return ValueTypeBoolean, true
	case tagInstant:
		return ValueTypeInstant, true
	case tagLong:
		return ValueTypeLong, true
	case tagDouble:
		return ValueTypeDouble, true
	case tagString:
		return ValueTypeString, true
	case tagUUID:
		return ValueTypeUUID, true
	case tagKeyword:
		return ValueTypeKeyword, true
	default:
		return 0, false
	}
}

// Causetid returns the bootstrapped :db.type/* entity naming this type.
func (t ValueType) Causetid() Causetid {
	switch t {
	case ValueTypeRef:
		return DBTypeRef
	case ValueTypeBoolean:
		return DBTypeBoolean
	case ValueTypeInstant:
		return DBTypeInstant
	case ValueTypeLong:
		return DBTypeLong
	case ValueTypeDouble:
		return DBTypeDouble
	case ValueTypeString:
		return DBTypeString
	case ValueTypeUUID:
		return DBTypeUUID
	case ValueTypeKeyword:
		return DBTypeKeyword
	default:
		panic(fmt.Sprintf("unknown value type %d", int(t)))
	}
}

// ValueTypeFromCausetid maps a :db.type/* causetid back to a ValueType.
// URI and bytes are named in the bootstrap vocabulary but not supported.
func ValueTypeFromCausetid(e Causetid) (ValueType, bool) {
	switch e {
	case DBTypeRef:
		return ValueTypeRef, true
	case DBTypeBoolean:
		return ValueTypeBoolean, true
	case DBTypeInstant:
		return ValueTypeInstant, true
	case DBTypeLong:
		return ValueTypeLong, true
	case DBTypeDouble:
		return ValueTypeDouble, true
	case DBTypeString:
		return ValueTypeString, true
	case DBTypeUUID:
		return ValueTypeUUID, true
	case DBTypeKeyword:
		return ValueTypeKeyword, true
	default:
		return 0, false
	}
}

// String returns the short name used in :db.type/<name>.
func (t ValueType) String() string {
	switch t {
	case ValueTypeRef:
		return "ref"
	case ValueTypeBoolean:
		return "boolean"
	case ValueTypeInstant:
		return "instant"
	case ValueTypeLong:
		return "long"
	case ValueTypeDouble:
		return "double"
	case ValueTypeString:
		return "string"
	case ValueTypeUUID:
		return "uuid"
	case ValueTypeKeyword:
		return "keyword"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseValueType accepts either the short name ("string") or the full
// keyword form (":db.type/string").
func ParseValueType(s string) (ValueType, bool) {
	s = strings.TrimPrefix(s, ":db.type/")
	for t := ValueTypeRef; t <= ValueTypeKeyword; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// TypedValue is a sealed interface over the scalar value types.
// Only Ref, Boolean, Long, Double, Instant, String, UUID and Keyword
// implement it.
type TypedValue interface {
	ValueType() ValueType
	typedValue() // Sealed - only these types implement it
}

// Ref is a reference to another entity.
type Ref Causetid

// Boolean is a boolean value.
type Boolean bool

// Long is a 64-bit signed integer value.
type Long int64

// Double is a 64-bit floating point value.
type Double float64

// Instant is a point in time with microsecond precision, stored as
// microseconds since the Unix epoch.
type Instant int64

// String is a string value.
type String string

// UUID is a 128-bit UUID value.
type UUID uuid.UUID

func (Ref) typedValue()     {}
func (Boolean) typedValue() {}
func (Long) typedValue()    {}
func (Double) typedValue()  {}
func (Instant) typedValue() {}
func (String) typedValue()  {}
func (UUID) typedValue()    {}
func (Keyword) typedValue() {}

func (Ref) ValueType() ValueType     { return ValueTypeRef }
func (Boolean) ValueType() ValueType { return ValueTypeBoolean }
func (Long) ValueType() ValueType    { return ValueTypeLong }
func (Double) ValueType() ValueType  { return ValueTypeDouble }
func (Instant) ValueType() ValueType { return ValueTypeInstant }
func (String) ValueType() ValueType  { return ValueTypeString }
func (UUID) ValueType() ValueType    { return ValueTypeUUID }
func (Keyword) ValueType() ValueType { return ValueTypeKeyword }

// InstantFromTime truncates t to microseconds.
func InstantFromTime(t time.Time) Instant {
	return Instant(t.UnixMicro())
}

// Time converts the instant back to a UTC time.Time.
func (i Instant) Time() time.Time {
	return time.UnixMicro(int64(i)).UTC()
}

// FormatValue renders a value in the textual form accepted by the EDN
// reader, e.g. 42, "text", :ns/kw, #inst "...", #uuid "...".
func FormatValue(v TypedValue) string {
	switch val := v.(type) {
	case Ref:
		return strconv.FormatInt(int64(val), 10)
	case Boolean:
		return strconv.FormatBool(bool(val))
	case Long:
		return strconv.FormatInt(int64(val), 10)
	case Double:
		s := strconv.FormatFloat(float64(val), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case Instant:
		return fmt.Sprintf("#inst %q", val.Time().Format("2006-01-02T15:04:05.000000Z"))
	case String:
		return strconv.Quote(string(val))
	case UUID:
		return fmt.Sprintf("#uuid %q", uuid.UUID(val).String())
	case Keyword:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CompareValues orders values first by storage tag, then by value.
// It gives datoms a deterministic order for dumps and reports.
func CompareValues(a, b TypedValue) int {
	if c := cmp.Compare(a.ValueType().Tag(), b.ValueType().Tag()); c != 0 {
		return c
	}
	switch av := a.(type) {
	case Ref:
		return cmp.Compare(av, b.(Ref))
	case Boolean:
		bv := b.(Boolean)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case Long:
		return cmp.Compare(av, b.(Long))
	case Double:
		return cmp.Compare(av, b.(Double))
	case Instant:
		return cmp.Compare(av, b.(Instant))
	case String:
		return strings.Compare(string(av), string(b.(String)))
	case UUID:
		bv := b.(UUID)
		return bytes.Compare(av[:], bv[:])
	case Keyword:
		return av.Compare(b.(Keyword))
	default:
		return 0
	}
}

// ToSQL converts a value to the driver value and storage tag written to
// the v and value_type_tag columns.
func ToSQL(v TypedValue) (any, int) {
	tag := v.ValueType().Tag()
	switch val := v.(type) {
	case Ref:
		return int64(val), tag
	case Boolean:
		if val {
			return int64(1), tag
		}
		return int64(0), tag
	case Long:
		return int64(val), tag
	case Double:
		return float64(val), tag
	case Instant:
		return int64(val), tag
	case String:
		return string(val), tag
	case UUID:
		b := make([]byte, 16)
		copy(b, val[:])
		return b, tag
	case Keyword:
		return val.String(), tag
	default:
		panic(fmt.Sprintf("unknown TypedValue type: %T", v))
	}
}

// FromSQL decodes a (v, value_type_tag) column pair.
func FromSQL(raw any, tag int) (TypedValue, error) {
	vt, ok := ValueTypeFromTag(tag)
	if !ok {
		return nil, fmt.Errorf("unknown value type tag %d", tag)
	}

	switch vt {
	case ValueTypeRef, ValueTypeBoolean, ValueTypeLong, ValueTypeInstant:
		n, ok := raw.(int64)
		if !ok {
			return nil, fmt.Errorf("value type %s: expected integer, got %T", vt, raw)
		}
		switch vt {
		case ValueTypeRef:
			return Ref(n), nil
		case ValueTypeBoolean:
			return Boolean(n != 0), nil
		case ValueTypeLong:
			return Long(n), nil
		default:
			return Instant(n), nil
		}
	case ValueTypeDouble:
		switch n := raw.(type) {
		case float64:
			return Double(n), nil
		case int64:
			// SQLite may hand back integral reals as integers.
			return Double(float64(n)), nil
		}
		return nil, fmt.Errorf("value type double: expected real, got %T", raw)
	case ValueTypeString:
		s, err := sqlText(raw)
		if err != nil {
			return nil, fmt.Errorf("value type string: %w", err)
		}
		return String(s), nil
	case ValueTypeKeyword:
		s, err := sqlText(raw)
		if err != nil {
			return nil, fmt.Errorf("value type keyword: %w", err)
		}
		kw, err := ParseKeyword(s)
		if err != nil {
			return nil, err
		}
		return kw, nil
	case ValueTypeUUID:
		b, ok := raw.([]byte)
		if !ok {
			return nil, fmt.Errorf("value type uuid: expected blob, got %T", raw)
		}
		u, err := uuid.FromBytes(b)
		if err != nil {
			return nil, fmt.Errorf("value type uuid: %w", err)
		}
		return UUID(u), nil
	}
	return nil, fmt.Errorf("unhandled value type %s", vt)
}

func sqlText(raw any) (string, error) {
	switch s := raw.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("expected text, got %T", raw)
	}
}

// IsNaN reports whether v is a Double holding NaN. NaN never equals itself,
// so such values are rejected before they can reach an index.
func IsNaN(v TypedValue) bool {
	d, ok := v.(Double)
	return ok && math.IsNaN(float64(d))
}
