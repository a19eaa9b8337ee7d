package ir

import (
	"slices"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Attribute is an opaque attribute name.
type Attribute string

// AttrSet is a set of attributes stored as a sorted, duplicate-free slice.
//
// Ordering uses UTF-16 code units, the same order MarshalCanonical uses for
// object keys, so a set's display order and its canonical key agree.
// Construct with NewAttrSet; the zero value is the empty set.
type AttrSet []Attribute

// NewAttrSet builds a set from names. See Attrs for normalization.
func NewAttrSet(names ...string) AttrSet {
	attrs := make([]Attribute, len(names))
	for i, n := range names {
		attrs[i] = Attribute(n)
	}
	return Attrs(attrs...)
}

// Attrs builds a set from attributes. Names are NFC normalized, as
// MarshalCanonical does, so two names collapse exactly when their canonical
// keys agree. Invalid UTF-8 bytes are kept as they are.
func Attrs(attrs ...Attribute) AttrSet {
	s := make(AttrSet, len(attrs))
	for i, a := range attrs {
		s[i] = normalizeAttr(a)
	}
	slices.SortFunc(s, compareAttrs)
	return slices.Compact(s)
}

// Normalized returns s in the form Attrs builds. Sets that already are
// normalized come back unchanged without copying.
func (s AttrSet) Normalized() AttrSet {
	for i, a := range s {
		if !isNormalAttr(a) || (i > 0 && compareAttrs(s[i-1], a) >= 0) {
			return Attrs(s...)
		}
	}
	return s
}

func normalizeAttr(a Attribute) Attribute {
	if isNormalAttr(a) {
		return a
	}
	return Attribute(norm.NFC.String(string(a)))
}

func isNormalAttr(a Attribute) bool {
	return norm.NFC.IsNormalString(string(a))
}

// Len returns the number of attributes.
func (s AttrSet) Len() int {
	return len(s)
}

// IsEmpty reports whether s has no attributes.
func (s AttrSet) IsEmpty() bool {
	return len(s) == 0
}

// Contains reports whether a is in s.
func (s AttrSet) Contains(a Attribute) bool {
	_, found := slices.BinarySearchFunc(s, normalizeAttr(a), compareAttrs)
	return found
}

// SubsetOf reports whether every attribute of s is in other.
func (s AttrSet) SubsetOf(other AttrSet) bool {
	if len(s) > len(other) {
		return false
	}
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch c := compareAttrs(s[i], other[j]); {
		case c == 0:
			i++
			j++
		case c > 0:
			j++
		default:
			return false
		}
	}
	return i == len(s)
}

// SupersetOf reports whether s contains every attribute of other.
func (s AttrSet) SupersetOf(other AttrSet) bool {
	return other.SubsetOf(s)
}

// Equal reports whether s and other hold the same attributes.
func (s AttrSet) Equal(other AttrSet) bool {
	return slices.Equal(s, other)
}

// Union returns s ∪ other as a new set.
func (s AttrSet) Union(other AttrSet) AttrSet {
	out := make(AttrSet, 0, len(s)+len(other))
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch c := compareAttrs(s[i], other[j]); {
		case c == 0:
			out = append(out, s[i])
			i++
			j++
		case c < 0:
			out = append(out, s[i])
			i++
		default:
			out = append(out, other[j])
			j++
		}
	}
	out = append(out, s[i:]...)
	return append(out, other[j:]...)
}

// With returns s ∪ {a}.
func (s AttrSet) With(a Attribute) AttrSet {
	return s.Union(AttrSet{normalizeAttr(a)})
}

// Names returns the attribute names in set order.
func (s AttrSet) Names() []string {
	names := make([]string, len(s))
	for i, a := range s {
		names[i] = string(a)
	}
	return names
}

// Key returns the canonical JSON encoding of s, usable as a map key.
func (s AttrSet) Key() string {
	b, err := MarshalCanonical(s.Names())
	if err != nil {
		// Strings always marshal.
		panic(err)
	}
	return string(b)
}

// String renders s as "{a, b}".
func (s AttrSet) String() string {
	return "{" + strings.Join(s.Names(), ", ") + "}"
}

// compareAttrs orders attributes by UTF-16 code units (RFC 8785 order).
func compareAttrs(a, b Attribute) int {
	return compareKeysRFC8785(string(a), string(b))
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// Go's default string comparison uses UTF-8 which produces a different order.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	// Distinct invalid byte strings can share code units.
	return strings.Compare(a, b)
}
