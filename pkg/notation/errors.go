package notation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPhoneme matches every [*InvalidPhonemeError].
	ErrInvalidPhoneme = errors.New("invalid phoneme")

	// ErrInvalidInput is returned for empty text or an empty training set.
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidPhonemeError reports a token that is not a catalog symbol.
type InvalidPhonemeError struct {
	// Token is the offending token as written.
	Token string

	// Syllable is the zero-based index of the syllable holding Token.
	Syllable int

	// Text is the full syllable as written.
	Text string

	// Suggestion is the closest catalog symbol, or empty.
	Suggestion string
}

func (e *InvalidPhonemeError) Error() string {
	msg := fmt.Sprintf("notation: invalid phoneme %q in syllable %d (%q)", e.Token, e.Syllable+1, e.Text)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(", did you mean %q?", e.Suggestion)
	}
	return msg
}

// Is makes errors.Is(err, ErrInvalidPhoneme) succeed.
func (e *InvalidPhonemeError) Is(target error) bool { return target == ErrInvalidPhoneme }
