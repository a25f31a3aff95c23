// Package phoneme is the read-only catalog of the Arpabet phonemes that are
// phonemic in English, together with their articulatory features.
//
// Consonants carry a place, manner and voice. Vowels carry voice only. Some
// consonants have a voicing counterpart (P and B, S and Z, ...) which is
// available through [Phoneme.Contrast].
//
// All values in this package are immutable and safe for concurrent use.
package phoneme

import (
	"fmt"
	"slices"
)

// Category separates vowels from consonants.
type Category uint8

const (
	Vowel Category = iota + 1
	Consonant
)

// String implements [fmt.Stringer].
func (c Category) String() string {
	switch c {
	case Vowel:
		return "VOWEL"
	case Consonant:
		return "CONSONANT"
	default:
		return fmt.Sprintf("Category(%d)", c)
	}
}

// Phoneme identifies one catalog entry. The zero value is [None] and is not
// a member of the catalog.
type Phoneme uint8

// None is the absent phoneme, used where a neighbour does not exist.
const None Phoneme = 0

// Vowels.
const (
	AO Phoneme = iota + 1
	AA
	IY
	UW
	EH
	IH
	UH
	AH
	AX
	AE
	EY
	AY
	OW
	AW
	OY
	ER
	AXR
	EHR
	AOR
	AAR
	IHR
	IYR
	AWR

	// Consonants.
	P
	B
	T
	D
	K
	G
	CH
	JH
	F
	V
	TH
	DH
	S
	Z
	SH
	ZH
	HH
	M
	N
	NG
	L
	R
	DX
	Y
	W

	numPhonemes = iota + 1
)

// Articulation is the place, manner and voice of a consonant.
type Articulation struct {
	Place  Place
	Manner Manner
	Voice  Voice
}

type entry struct {
	symbol   string
	category Category
	art      Articulation
}

func vowel(symbol string) entry {
	return entry{symbol: symbol, category: Vowel, art: Articulation{Voice: Voiced}}
}

func consonant(symbol string, p Place, m Manner, v Voice) entry {
	return entry{symbol: symbol, category: Consonant, art: Articulation{p, m, v}}
}

var catalog = [numPhonemes]entry{
	AO:  vowel("AO"),
	AA:  vowel("AA"),
	IY:  vowel("IY"),
	UW:  vowel("UW"),
	EH:  vowel("EH"),
	IH:  vowel("IH"),
	UH:  vowel("UH"),
	AH:  vowel("AH"),
	AX:  vowel("AX"),
	AE:  vowel("AE"),
	EY:  vowel("EY"),
	AY:  vowel("AY"),
	OW:  vowel("OW"),
	AW:  vowel("AW"),
	OY:  vowel("OY"),
	ER:  vowel("ER"),
	AXR: vowel("AXR"),
	EHR: vowel("EH_R"),
	AOR: vowel("AO_R"),
	AAR: vowel("AA_R"),
	IHR: vowel("IH_R"),
	IYR: vowel("IY_R"),
	AWR: vowel("AW_R"),

	P:  consonant("P", Bilabial, Stop, Voiceless),
	B:  consonant("B", Bilabial, Stop, Voiced),
	T:  consonant("T", Alveolar, Stop, Voiceless),
	D:  consonant("D", Alveolar, Stop, Voiced),
	K:  consonant("K", Velar, Stop, Voiceless),
	G:  consonant("G", Velar, Stop, Voiced),
	CH: consonant("CH", Postalveolar, Affricate, Voiceless),
	JH: consonant("JH", Postalveolar, Affricate, Voiced),
	F:  consonant("F", Labiodental, Fricative, Voiceless),
	V:  consonant("V", Labiodental, Fricative, Voiced),
	TH: consonant("TH", Dental, Fricative, Voiceless),
	DH: consonant("DH", Dental, Fricative, Voiced),
	S:  consonant("S", Alveolar, Fricative, Voiceless),
	Z:  consonant("Z", Alveolar, Fricative, Voiced),
	SH: consonant("SH", Postalveolar, Fricative, Voiceless),
	ZH: consonant("ZH", Postalveolar, Fricative, Voiced),
	HH: consonant("HH", Uvular, Fricative, Voiceless),
	M:  consonant("M", Bilabial, Nasal, Voiced),
	N:  consonant("N", Alveolar, Nasal, Voiced),
	NG: consonant("NG", Velar, Nasal, Voiced),
	L:  consonant("L", Alveolar, LateralApproximant, Voiced),
	R:  consonant("R", Alveolar, Approximant, Voiced),
	DX: consonant("DX", Alveolar, Flap, Voiced),
	Y:  consonant("Y", Palatal, Approximant, Voiced),
	W:  consonant("W", Velar, Approximant, Voiceless),
}

var contrasts = map[Phoneme]Phoneme{
	P: B, B: P,
	T: D, D: T,
	K: G, G: K,
	CH: JH, JH: CH,
	F: V, V: F,
	TH: DH, DH: TH,
	S: Z, Z: S,
	SH: ZH, ZH: SH,
}

var (
	bySymbol       = make(map[string]Phoneme, numPhonemes)
	byArticulation = make(map[Articulation]Phoneme)
	all            []Phoneme
	consonants     Set
	vowels         Set
)

func init() {
	for i := 1; i < numPhonemes; i++ {
		p := Phoneme(i)
		e := catalog[p]
		bySymbol[e.symbol] = p
		all = append(all, p)
		if e.category == Vowel {
			vowels = vowels.With(p)
			continue
		}
		consonants = consonants.With(p)
		byArticulation[e.art] = p
	}
}

// Lookup returns the phoneme written as symbol. Symbols are case-sensitive
// and multi-token Arpabet symbols use an underscore, e.g. "EH_R".
func Lookup(symbol string) (Phoneme, bool) {
	p, ok := bySymbol[symbol]
	return p, ok
}

// MustLookup is like [Lookup] but panics on an unknown symbol. It is meant
// for tests and static tables.
func MustLookup(symbol string) Phoneme {
	p, ok := Lookup(symbol)
	if !ok {
		panic(fmt.Sprintf("phoneme: unknown symbol %q", symbol))
	}
	return p
}

// ByArticulation returns the consonant with exactly the given place, manner
// and voice. The second result is false when no such consonant exists.
func ByArticulation(a Articulation) (Phoneme, bool) {
	p, ok := byArticulation[a]
	return p, ok
}

// All returns every catalog phoneme in catalog order.
func All() []Phoneme { return slices.Clone(all) }

// Symbols returns the symbols of every catalog phoneme in catalog order.
func Symbols() []string {
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = p.String()
	}
	return out
}

// Consonants returns the set of all consonants. It is the domain of the
// adjacency dimensions of a phonetic environment.
func Consonants() Set { return consonants }

// Vowels returns the set of all vowels.
func Vowels() Set { return vowels }

// Valid reports whether p is a catalog member.
func (p Phoneme) Valid() bool { return p > None && int(p) < numPhonemes }

// String returns the catalog symbol, or "-" for [None].
func (p Phoneme) String() string {
	if !p.Valid() {
		if p == None {
			return "-"
		}
		return fmt.Sprintf("Phoneme(%d)", p)
	}
	return catalog[p].symbol
}

// Category returns whether p is a vowel or a consonant.
func (p Phoneme) Category() Category {
	if !p.Valid() {
		return 0
	}
	return catalog[p].category
}

// IsVowel reports whether p is a vowel.
func (p Phoneme) IsVowel() bool { return p.Category() == Vowel }

// IsConsonant reports whether p is a consonant.
func (p Phoneme) IsConsonant() bool { return p.Category() == Consonant }

// Voice returns the voicing of p. Vowels are always voiced.
func (p Phoneme) Voice() Voice { return catalog[p].art.Voice }

// Articulation returns the place, manner and voice of a consonant. The
// second result is false for vowels and [None].
func (p Phoneme) Articulation() (Articulation, bool) {
	if !p.IsConsonant() {
		return Articulation{}, false
	}
	return catalog[p].art, true
}

// Features returns the feature set describing exactly p. It is empty for
// vowels.
func (p Phoneme) Features() FeatureSet {
	a, ok := p.Articulation()
	if !ok {
		return FeatureSet{}
	}
	return FeatureSet{
		Places:  PlaceSet(0).With(a.Place),
		Manners: MannerSet(0).With(a.Manner),
		Voices:  VoiceSet(0).With(a.Voice),
	}
}

// Contrast returns the voicing counterpart of p. Not every phoneme has one.
func (p Phoneme) Contrast() (Phoneme, bool) {
	c, ok := contrasts[p]
	return c, ok
}

// MarshalText implements [encoding.TextMarshaler].
func (p Phoneme) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("phoneme: marshal invalid phoneme %d", p)
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (p *Phoneme) UnmarshalText(b []byte) error {
	v, ok := Lookup(string(b))
	if !ok {
		return fmt.Errorf("phoneme: unknown symbol %q", b)
	}
	*p = v
	return nil
}
