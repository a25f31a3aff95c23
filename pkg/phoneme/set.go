package phoneme

import (
	"encoding/json"
	"math/bits"
	"strings"
)

// Set is a set of catalog phonemes.
type Set uint64

// SetOf returns the set holding ps. [None] is ignored.
func SetOf(ps ...Phoneme) Set {
	var s Set
	for _, p := range ps {
		s = s.With(p)
	}
	return s
}

// With returns s with p added. Adding [None] is a no-op.
func (s Set) With(p Phoneme) Set {
	if !p.Valid() {
		return s
	}
	return s | 1<<p
}

// Without returns s with p removed.
func (s Set) Without(p Phoneme) Set { return s &^ (1 << p) }

// Has reports whether p is in s.
func (s Set) Has(p Phoneme) bool { return p.Valid() && s&(1<<p) != 0 }

// Len returns the number of members.
func (s Set) Len() int { return bits.OnesCount64(uint64(s)) }

// Union returns s ∪ o.
func (s Set) Union(o Set) Set { return s | o }

// Intersect returns s ∩ o.
func (s Set) Intersect(o Set) Set { return s & o }

// Minus returns s \ o.
func (s Set) Minus(o Set) Set { return s &^ o }

// Contains reports whether s is a superset of o.
func (s Set) Contains(o Set) bool { return o&^s == 0 }

// Phonemes returns the members of s in catalog order.
func (s Set) Phonemes() []Phoneme {
	out := make([]Phoneme, 0, s.Len())
	for v := s; v != 0; v &= v - 1 {
		out = append(out, Phoneme(bits.TrailingZeros64(uint64(v))))
	}
	return out
}

func (s Set) String() string {
	ps := s.Phonemes()
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

// MarshalJSON encodes the set as a list of symbols.
func (s Set) MarshalJSON() ([]byte, error) { return json.Marshal(s.Phonemes()) }
