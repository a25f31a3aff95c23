// Package environment models the phonetic environment under which a
// substitution is hypothesized to occur: where a phoneme sits in its word
// and syllable, whether it borders vowels, and which consonants may precede
// or follow it.
//
// An [Environment] is a plain value. Copying it copies every set, so two
// rules never share environment state.
package environment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrWong99/phonoshift/pkg/phoneme"
)

// ErrInvalidEnvironment is returned by [Environment.Validate].
var ErrInvalidEnvironment = errors.New("invalid environment")

// Environment is a set of phonetic contexts.
//
// ComesAfter holds the consonants that may precede the phoneme and
// ComesBefore the consonants that may follow it. Their "doesn't come"
// complements are derived over the consonant domain, so a set and its
// complement always partition the domain.
type Environment struct {
	Word        Positions        `json:"word_positions"`
	Syllable    Positions        `json:"syllable_positions"`
	Vowel       VowelAdjacencies `json:"vowel_adjacency"`
	ComesAfter  phoneme.Set      `json:"comes_after"`
	ComesBefore phoneme.Set      `json:"comes_before"`
}

// Global returns the environment holding every context.
func Global() Environment {
	return Environment{
		Word:        AllPositions,
		Syllable:    AllPositions,
		Vowel:       AllVowelAdjacencies,
		ComesAfter:  phoneme.Consonants(),
		ComesBefore: phoneme.Consonants(),
	}
}

// Empty returns the environment holding no context.
func Empty() Environment { return Environment{} }

// IsGlobal reports whether every dimension equals its full domain.
func (e Environment) IsGlobal() bool { return e == Global() }

// DoesntComeAfter returns the consonants that may not precede the phoneme.
func (e Environment) DoesntComeAfter() phoneme.Set {
	return phoneme.Consonants().Minus(e.ComesAfter)
}

// DoesntComeBefore returns the consonants that may not follow the phoneme.
func (e Environment) DoesntComeBefore() phoneme.Set {
	return phoneme.Consonants().Minus(e.ComesBefore)
}

// AddWord adds p to the word positions.
func (e *Environment) AddWord(p Position) { e.Word = e.Word.With(p) }

// RemoveWord removes p from the word positions.
func (e *Environment) RemoveWord(p Position) { e.Word = e.Word.Without(p) }

// AddSyllable adds p to the syllable positions.
func (e *Environment) AddSyllable(p Position) { e.Syllable = e.Syllable.With(p) }

// RemoveSyllable removes p from the syllable positions.
func (e *Environment) RemoveSyllable(p Position) { e.Syllable = e.Syllable.Without(p) }

// AddVowel adds v to the vowel adjacencies.
func (e *Environment) AddVowel(v VowelAdjacency) { e.Vowel = e.Vowel.With(v) }

// RemoveVowel removes v from the vowel adjacencies.
func (e *Environment) RemoveVowel(v VowelAdjacency) { e.Vowel = e.Vowel.Without(v) }

// AddComesAfter allows p to precede the phoneme. Vowels and [phoneme.None]
// are ignored; vowel neighbours are tracked by the vowel adjacency only.
func (e *Environment) AddComesAfter(p phoneme.Phoneme) {
	if p.IsConsonant() {
		e.ComesAfter = e.ComesAfter.With(p)
	}
}

// RemoveComesAfter forbids p from preceding the phoneme.
func (e *Environment) RemoveComesAfter(p phoneme.Phoneme) {
	if p.IsConsonant() {
		e.ComesAfter = e.ComesAfter.Without(p)
	}
}

// AddComesBefore allows p to follow the phoneme.
func (e *Environment) AddComesBefore(p phoneme.Phoneme) {
	if p.IsConsonant() {
		e.ComesBefore = e.ComesBefore.With(p)
	}
}

// RemoveComesBefore forbids p from following the phoneme.
func (e *Environment) RemoveComesBefore(p phoneme.Phoneme) {
	if p.IsConsonant() {
		e.ComesBefore = e.ComesBefore.Without(p)
	}
}

// GlobalPositions fills the word, syllable and vowel dimensions.
func (e *Environment) GlobalPositions() {
	e.Word = AllPositions
	e.Syllable = AllPositions
	e.Vowel = AllVowelAdjacencies
}

// GlobalAdjacency fills both adjacency dimensions.
func (e *Environment) GlobalAdjacency() {
	e.ComesAfter = phoneme.Consonants()
	e.ComesBefore = phoneme.Consonants()
}

// Observe widens e to hold the context c.
func (e *Environment) Observe(c Context) {
	e.AddWord(c.Word)
	e.AddSyllable(c.Syllable)
	e.AddVowel(c.Vowel)
	e.AddComesAfter(c.Prev)
	e.AddComesBefore(c.Next)
}

// Exclude narrows e so that no dimension admits the values of c.
func (e *Environment) Exclude(c Context) {
	e.RemoveWord(c.Word)
	e.RemoveSyllable(c.Syllable)
	e.RemoveVowel(c.Vowel)
	e.RemoveComesAfter(c.Prev)
	e.RemoveComesBefore(c.Next)
}

// Contains reports whether e is a superset of o on every dimension.
//
// When ignoreComplement is false the "doesn't come" complements of e must
// also be supersets of those of o. Matching a context only needs positive
// membership and passes true.
func (e Environment) Contains(o Environment, ignoreComplement bool) bool {
	if !e.Word.Contains(o.Word) ||
		!e.Syllable.Contains(o.Syllable) ||
		!e.Vowel.Contains(o.Vowel) ||
		!e.ComesAfter.Contains(o.ComesAfter) ||
		!e.ComesBefore.Contains(o.ComesBefore) {
		return false
	}
	if ignoreComplement {
		return true
	}
	return e.DoesntComeAfter().Contains(o.DoesntComeAfter()) &&
		e.DoesntComeBefore().Contains(o.DoesntComeBefore())
}

// Intersect returns the contexts held by both e and o.
func (e Environment) Intersect(o Environment) Environment {
	return Environment{
		Word:        e.Word & o.Word,
		Syllable:    e.Syllable & o.Syllable,
		Vowel:       e.Vowel & o.Vowel,
		ComesAfter:  e.ComesAfter.Intersect(o.ComesAfter),
		ComesBefore: e.ComesBefore.Intersect(o.ComesBefore),
	}
}

// Size is the total number of members across all dimensions. A smaller
// size means a more specific environment.
func (e Environment) Size() int {
	return e.Word.Len() + e.Syllable.Len() + e.Vowel.Len() + e.ComesAfter.Len() + e.ComesBefore.Len()
}

// Validate checks that every dimension stays within its domain. The mutators
// keep this invariant; Validate catches environments built field by field or
// decoded from elsewhere, and rules.Train runs it over every learned rule.
func (e Environment) Validate() error {
	var errs []error
	if !AllPositions.Contains(e.Word) {
		errs = append(errs, fmt.Errorf("word positions %08b out of range", uint8(e.Word)))
	}
	if !AllPositions.Contains(e.Syllable) {
		errs = append(errs, fmt.Errorf("syllable positions %08b out of range", uint8(e.Syllable)))
	}
	if !AllVowelAdjacencies.Contains(e.Vowel) {
		errs = append(errs, fmt.Errorf("vowel adjacency %08b out of range", uint8(e.Vowel)))
	}
	if extra := e.ComesAfter.Minus(phoneme.Consonants()); extra != 0 {
		errs = append(errs, fmt.Errorf("comes-after holds non-consonants %v", extra))
	}
	if extra := e.ComesBefore.Minus(phoneme.Consonants()); extra != 0 {
		errs = append(errs, fmt.Errorf("comes-before holds non-consonants %v", extra))
	}
	if len(errs) > 0 {
		return fmt.Errorf("environment: %w: %w", ErrInvalidEnvironment, errors.Join(errs...))
	}
	return nil
}

func (e Environment) String() string {
	if e.IsGlobal() {
		return "GLOBAL"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "word=%s syllable=%s vowel=%s", e.Word, e.Syllable, e.Vowel)
	fmt.Fprintf(&sb, " after=%s before=%s", adjacencyString(e.ComesAfter), adjacencyString(e.ComesBefore))
	return sb.String()
}

func adjacencyString(s phoneme.Set) string {
	switch {
	case s == phoneme.Consonants():
		return "ALL"
	case s.Len() > phoneme.Consonants().Len()/2:
		return "ALL-" + phoneme.Consonants().Minus(s).String()
	default:
		return s.String()
	}
}
