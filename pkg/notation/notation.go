// Package notation parses and formats the word notation used for training
// data and guesses.
//
// A word is a sequence of syllables separated by a single space. A syllable
// is a sequence of phoneme symbols separated by a hyphen:
//
//	K-AE-T            one syllable
//	G-EY-G K-UH-M     two syllables
//	B-EH_R            multi-token Arpabet symbols use an underscore
//
// Parsing is strict so that [Word.String] reproduces the input exactly.
package notation

import (
	"strings"

	"github.com/MrWong99/phonoshift/pkg/phoneme"
)

const (
	syllableSep = " "
	phonemeSep  = "-"
)

// Syllable is an ordered list of phonemes.
type Syllable []phoneme.Phoneme

// Word is an ordered list of syllables.
type Word []Syllable

// Parse segments text into syllables of phonemes. It fails with
// [ErrInvalidInput] on empty text and with an [*InvalidPhonemeError] on the
// first token that is not a catalog symbol.
func Parse(text string) (Word, error) {
	if text == "" {
		return nil, ErrInvalidInput
	}
	raw := strings.Split(text, syllableSep)
	w := make(Word, 0, len(raw))
	for i, syl := range raw {
		tokens := strings.Split(syl, phonemeSep)
		s := make(Syllable, 0, len(tokens))
		for _, tok := range tokens {
			p, ok := phoneme.Lookup(tok)
			if !ok {
				return nil, &InvalidPhonemeError{
					Token:      tok,
					Syllable:   i,
					Text:       syl,
					Suggestion: Suggest(tok),
				}
			}
			s = append(s, p)
		}
		w = append(w, s)
	}
	return w, nil
}

// MustParse is like [Parse] but panics on error. It is meant for tests.
func MustParse(text string) Word {
	w, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return w
}

// String formats w in the notation accepted by [Parse].
func (w Word) String() string {
	var sb strings.Builder
	for i, s := range w {
		if i > 0 {
			sb.WriteString(syllableSep)
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Len returns the number of phonemes across all syllables.
func (w Word) Len() int {
	n := 0
	for _, s := range w {
		n += len(s)
	}
	return n
}

// Phonemes returns the phonemes of w in order, ignoring syllable boundaries.
func (w Word) Phonemes() []phoneme.Phoneme {
	out := make([]phoneme.Phoneme, 0, w.Len())
	for _, s := range w {
		out = append(out, s...)
	}
	return out
}

// Clone returns a deep copy of w.
func (w Word) Clone() Word {
	out := make(Word, len(w))
	for i, s := range w {
		out[i] = append(Syllable(nil), s...)
	}
	return out
}

// String formats s with hyphen separators.
func (s Syllable) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.String()
	}
	return strings.Join(parts, phonemeSep)
}
