package environment

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"
)

// Position is the location of a phoneme within a word or a syllable.
type Position uint8

const (
	Begin Position = iota
	Mid
	End

	numPositions = iota
)

var positionNames = [numPositions]string{"BEGIN", "MID", "END"}

func (p Position) String() string {
	if p < numPositions {
		return positionNames[p]
	}
	return fmt.Sprintf("Position(%d)", p)
}

// MarshalText implements [encoding.TextMarshaler].
func (p Position) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// PositionOf returns the position of index i in a run of n elements. The
// last element is always [End], so a run of one is [End].
func PositionOf(i, n int) Position {
	switch {
	case i == n-1:
		return End
	case i == 0:
		return Begin
	default:
		return Mid
	}
}

// Positions is a set of [Position] values.
type Positions uint8

// AllPositions is the full position domain.
const AllPositions Positions = 1<<numPositions - 1

// PositionsOf returns the set holding ps.
func PositionsOf(ps ...Position) Positions {
	var s Positions
	for _, p := range ps {
		s = s.With(p)
	}
	return s
}

// With returns s with p added.
func (s Positions) With(p Position) Positions { return s | 1<<p }

// Without returns s with p removed.
func (s Positions) Without(p Position) Positions { return s &^ (1 << p) }

// Has reports whether p is in s.
func (s Positions) Has(p Position) bool { return s&(1<<p) != 0 }

// Len returns the number of members.
func (s Positions) Len() int { return bits.OnesCount8(uint8(s)) }

// Contains reports whether every member of o is in s.
func (s Positions) Contains(o Positions) bool { return o&^s == 0 }

// Values returns the members of s in order.
func (s Positions) Values() []Position {
	out := []Position{}
	for p := Begin; p < numPositions; p++ {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s Positions) String() string { return joinNames(s.Values(), s == AllPositions) }

// MarshalJSON encodes the set as a list of names.
func (s Positions) MarshalJSON() ([]byte, error) { return json.Marshal(s.Values()) }

// VowelAdjacency describes where the vowels next to a phoneme are.
type VowelAdjacency uint8

const (
	// NoVowel means neither neighbour is a vowel.
	NoVowel VowelAdjacency = iota
	// BeforeVowel means only the following phoneme is a vowel.
	BeforeVowel
	// AfterVowel means only the preceding phoneme is a vowel.
	AfterVowel
	// Surrounded means both neighbours are vowels.
	Surrounded

	numAdjacencies = iota
)

var adjacencyNames = [numAdjacencies]string{"NONE", "BEFORE", "AFTER", "SURROUNDED"}

func (v VowelAdjacency) String() string {
	if v < numAdjacencies {
		return adjacencyNames[v]
	}
	return fmt.Sprintf("VowelAdjacency(%d)", v)
}

// MarshalText implements [encoding.TextMarshaler].
func (v VowelAdjacency) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// VowelAdjacencies is a set of [VowelAdjacency] values.
type VowelAdjacencies uint8

// AllVowelAdjacencies is the full vowel adjacency domain.
const AllVowelAdjacencies VowelAdjacencies = 1<<numAdjacencies - 1

// VowelAdjacenciesOf returns the set holding vs.
func VowelAdjacenciesOf(vs ...VowelAdjacency) VowelAdjacencies {
	var s VowelAdjacencies
	for _, v := range vs {
		s = s.With(v)
	}
	return s
}

// With returns s with v added.
func (s VowelAdjacencies) With(v VowelAdjacency) VowelAdjacencies { return s | 1<<v }

// Without returns s with v removed.
func (s VowelAdjacencies) Without(v VowelAdjacency) VowelAdjacencies { return s &^ (1 << v) }

// Has reports whether v is in s.
func (s VowelAdjacencies) Has(v VowelAdjacency) bool { return s&(1<<v) != 0 }

// Len returns the number of members.
func (s VowelAdjacencies) Len() int { return bits.OnesCount8(uint8(s)) }

// Contains reports whether every member of o is in s.
func (s VowelAdjacencies) Contains(o VowelAdjacencies) bool { return o&^s == 0 }

// Values returns the members of s in order.
func (s VowelAdjacencies) Values() []VowelAdjacency {
	out := []VowelAdjacency{}
	for v := NoVowel; v < numAdjacencies; v++ {
		if s.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

func (s VowelAdjacencies) String() string { return joinNames(s.Values(), s == AllVowelAdjacencies) }

// MarshalJSON encodes the set as a list of names.
func (s VowelAdjacencies) MarshalJSON() ([]byte, error) { return json.Marshal(s.Values()) }

func joinNames[T fmt.Stringer](vals []T, all bool) string {
	if all {
		return "ALL"
	}
	names := make([]string, len(vals))
	for i, v := range vals {
		names[i] = v.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}
