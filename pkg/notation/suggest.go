package notation

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/phonoshift/pkg/phoneme"
)

// suggestThreshold is the minimum Jaro-Winkler score for a suggestion.
const suggestThreshold = 0.75

// Suggest returns the catalog symbol closest to token, or "" when nothing is
// close enough. Case and the space-for-underscore mistake are forgiven first.
func Suggest(token string) string {
	norm := strings.ToUpper(strings.TrimSpace(token))
	norm = strings.ReplaceAll(norm, " ", "_")
	if norm == "" {
		return ""
	}
	if p, ok := phoneme.Lookup(norm); ok {
		return p.String()
	}

	best, bestScore := "", 0.0
	for _, sym := range phoneme.Symbols() {
		score := matchr.JaroWinkler(norm, sym, false)
		if score > bestScore {
			best, bestScore = sym, score
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return best
}
