package phoneme

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"
)

// Place is the place of articulation of a consonant.
type Place uint8

const (
	Bilabial Place = iota
	Labiodental
	Dental
	Alveolar
	Postalveolar
	Retroflex
	Velar
	Uvular
	Palatal
	Glottal

	numPlaces = iota
)

var placeNames = [numPlaces]string{
	"BILABIAL", "LABIODENTAL", "DENTAL", "ALVEOLAR", "POSTALVEOLAR",
	"RETROFLEX", "VELAR", "UVULAR", "PALATAL", "GLOTTAL",
}

func (p Place) String() string { return enumName(placeNames[:], uint8(p), "Place") }

// Manner is the manner of articulation of a consonant.
type Manner uint8

const (
	Stop Manner = iota
	Affricate
	Fricative
	Nasal
	Approximant
	LateralApproximant
	Flap

	numManners = iota
)

var mannerNames = [numManners]string{
	"STOP", "AFFRICATE", "FRICATIVE", "NASAL", "APPROXIMANT", "LATERAL_APPROXIMANT", "FLAP",
}

func (m Manner) String() string { return enumName(mannerNames[:], uint8(m), "Manner") }

// Voice is the voicing of a phoneme.
type Voice uint8

const (
	Voiced Voice = iota
	Voiceless

	numVoices = iota
)

var voiceNames = [numVoices]string{"VOICED", "VOICELESS"}

func (v Voice) String() string { return enumName(voiceNames[:], uint8(v), "Voice") }

func enumName(names []string, i uint8, kind string) string {
	if int(i) < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s(%d)", kind, i)
}

// MarshalText implements [encoding.TextMarshaler].
func (p Place) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// MarshalText implements [encoding.TextMarshaler].
func (m Manner) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// MarshalText implements [encoding.TextMarshaler].
func (v Voice) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Feature is one of the three articulatory feature enumerations.
type Feature interface {
	Place | Manner | Voice
}

// Bits is a set over one feature enumeration.
type Bits[F Feature] uint16

type (
	PlaceSet  = Bits[Place]
	MannerSet = Bits[Manner]
	VoiceSet  = Bits[Voice]
)

// AllOf returns the full domain of the feature enumeration F.
func AllOf[F Feature]() Bits[F] {
	var f F
	switch any(f).(type) {
	case Place:
		return Bits[F](1<<numPlaces - 1)
	case Manner:
		return Bits[F](1<<numManners - 1)
	default:
		return Bits[F](1<<numVoices - 1)
	}
}

// With returns s with f added.
func (s Bits[F]) With(f F) Bits[F] { return s | 1<<uint(f) }

// Without returns s with f removed.
func (s Bits[F]) Without(f F) Bits[F] { return s &^ (1 << uint(f)) }

// Has reports whether f is in s.
func (s Bits[F]) Has(f F) bool { return s&(1<<uint(f)) != 0 }

// Len returns the number of members.
func (s Bits[F]) Len() int { return bits.OnesCount16(uint16(s)) }

// Full reports whether s is the full domain.
func (s Bits[F]) Full() bool { return s == AllOf[F]() }

// Contains reports whether s is a superset of o.
func (s Bits[F]) Contains(o Bits[F]) bool { return o&^s == 0 }

// Only returns the single member of s. The second result is false unless s
// has exactly one member.
func (s Bits[F]) Only() (F, bool) {
	if s.Len() != 1 {
		var zero F
		return zero, false
	}
	return F(bits.TrailingZeros16(uint16(s))), true
}

// Values returns the members of s in enumeration order.
func (s Bits[F]) Values() []F {
	out := make([]F, 0, s.Len())
	for v := s; v != 0; v &= v - 1 {
		out = append(out, F(bits.TrailingZeros16(uint16(v))))
	}
	return out
}

// String formats the set as "{A,B}", or "ALL" for the full domain.
func (s Bits[F]) String() string {
	if s.Full() {
		return "ALL"
	}
	names := make([]string, 0, s.Len())
	for _, v := range s.Values() {
		names = append(names, fmt.Sprint(v))
	}
	return "{" + strings.Join(names, ",") + "}"
}

// MarshalJSON encodes the set as a list of names.
func (s Bits[F]) MarshalJSON() ([]byte, error) { return json.Marshal(s.Values()) }

// FeatureSet holds one set per articulatory dimension. A concrete consonant
// is described by singleton sets; a generalized rule uses wider sets as
// wildcards.
type FeatureSet struct {
	Places  PlaceSet  `json:"places"`
	Manners MannerSet `json:"manners"`
	Voices  VoiceSet  `json:"voices"`
}

// AllFeatures returns the feature set whose every dimension is full.
func AllFeatures() FeatureSet {
	return FeatureSet{AllOf[Place](), AllOf[Manner](), AllOf[Voice]()}
}

// IsGlobal reports whether every dimension equals its full domain.
func (fs FeatureSet) IsGlobal() bool {
	return fs.Places.Full() && fs.Manners.Full() && fs.Voices.Full()
}

// Matches reports whether a falls inside fs on every dimension.
func (fs FeatureSet) Matches(a Articulation) bool {
	return fs.Places.Has(a.Place) && fs.Manners.Has(a.Manner) && fs.Voices.Has(a.Voice)
}

func (fs FeatureSet) String() string {
	return fmt.Sprintf("place=%s manner=%s voice=%s", fs.Places, fs.Manners, fs.Voices)
}

// Dimension names one of the articulatory dimensions.
type Dimension uint8

const (
	PlaceDimension Dimension = iota
	MannerDimension
	VoiceDimension
)

func (d Dimension) String() string {
	return enumName([]string{"PLACE", "MANNER", "VOICE"}, uint8(d), "Dimension")
}

// MarshalText implements [encoding.TextMarshaler].
func (d Dimension) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Dimensions is a set of [Dimension] values.
type Dimensions uint8

// With returns ds with d added.
func (ds Dimensions) With(d Dimension) Dimensions { return ds | 1<<d }

// Has reports whether d is in ds.
func (ds Dimensions) Has(d Dimension) bool { return ds&(1<<d) != 0 }

// Values returns the members of ds in order.
func (ds Dimensions) Values() []Dimension {
	var out []Dimension
	for d := PlaceDimension; d <= VoiceDimension; d++ {
		if ds.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (ds Dimensions) String() string {
	names := make([]string, 0, 3)
	for _, d := range ds.Values() {
		names = append(names, d.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// MarshalJSON encodes the set as a list of names.
func (ds Dimensions) MarshalJSON() ([]byte, error) {
	vals := ds.Values()
	if vals == nil {
		vals = []Dimension{}
	}
	return json.Marshal(vals)
}
