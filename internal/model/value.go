package model

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Dash is the "not applicable / not recorded" marker used by the match centre.
const Dash = "-"

// Kind discriminates the variants of a coerced Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindDash
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDash:
		return "dash"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// Value is a coerced stat cell. The zero value is Empty.
type Value struct {
	kind Kind
	num  float64
	text string
}

func Empty() Value { return Value{} }
func DashValue() Value { return Value{kind: KindDash, text: Dash} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Text(s string) Value { return Value{kind: KindText, text: s} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }
func (v Value) IsDash() bool { return v.kind == KindDash }

// Float returns the numeric value and whether the cell holds a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// OrZero is the 0-fallback used when summing: anything that is not a number counts as 0.
// It does not change the stored value.
func (v Value) OrZero() float64 {
	if v.kind == KindNumber {
		return v.num
	}
	return 0
}

// String renders the cell for output.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDash:
		return Dash
	case KindText:
		return v.text
	default:
		return ""
	}
}

var (
	parenRe   = regexp.MustCompile(`\((.*?)\)`)
	decimalRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// Coerce turns one raw field into a typed Value.
//
// A parenthesised value such as "12 (4)" is replaced by the text inside the first pair.
// The dash sentinel is kept as-is; decimal text becomes a number; anything else is kept as
// trimmed text. Coerce never fails.
func Coerce(raw string) Value {
	if m := parenRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return Empty()
	case s == Dash:
		return DashValue()
	}
	if decimalRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			return Number(f)
		}
	}
	return Text(s)
}
