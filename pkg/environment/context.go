package environment

import (
	"fmt"

	"github.com/MrWong99/phonoshift/pkg/notation"
	"github.com/MrWong99/phonoshift/pkg/phoneme"
)

// Context is the concrete surrounding of one phoneme occurrence.
type Context struct {
	Word     Position        `json:"word_position"`
	Syllable Position        `json:"syllable_position"`
	Vowel    VowelAdjacency  `json:"vowel_adjacency"`
	Prev     phoneme.Phoneme `json:"prev,omitempty"`
	Next     phoneme.Phoneme `json:"next,omitempty"`
}

// Environment returns the narrowest environment holding c. Vowel
// neighbours are not recorded as adjacency phonemes.
func (c Context) Environment() Environment {
	var e Environment
	e.Observe(c)
	return e
}

func (c Context) String() string {
	return fmt.Sprintf("word=%s syllable=%s vowel=%s prev=%s next=%s", c.Word, c.Syllable, c.Vowel, c.Prev, c.Next)
}

// Site is one phoneme of a word together with its context.
type Site struct {
	Syllable int
	Index    int
	Phoneme  phoneme.Phoneme
	Context  Context
}

// Sites walks w and computes the context of every phoneme. Neighbours are
// looked up across syllable boundaries.
func Sites(w notation.Word) []Site {
	flat := w.Phonemes()
	out := make([]Site, 0, len(flat))
	k := 0
	for i, syl := range w {
		for j, p := range syl {
			var prev, next phoneme.Phoneme
			if k > 0 {
				prev = flat[k-1]
			}
			if k < len(flat)-1 {
				next = flat[k+1]
			}
			out = append(out, Site{
				Syllable: i,
				Index:    j,
				Phoneme:  p,
				Context: Context{
					Word:     PositionOf(k, len(flat)),
					Syllable: PositionOf(j, len(syl)),
					Vowel:    adjacency(prev, next),
					Prev:     prev,
					Next:     next,
				},
			})
			k++
		}
	}
	return out
}

func adjacency(prev, next phoneme.Phoneme) VowelAdjacency {
	switch before, after := next.IsVowel(), prev.IsVowel(); {
	case before && after:
		return Surrounded
	case after:
		return AfterVowel
	case before:
		return BeforeVowel
	default:
		return NoVowel
	}
}
