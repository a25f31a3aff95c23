package environment_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/phonoshift/pkg/environment"
	"github.com/MrWong99/phonoshift/pkg/notation"
	"github.com/MrWong99/phonoshift/pkg/phoneme"
)

func narrowed() environment.Environment {
	e := environment.Global()
	e.RemoveWord(environment.End)
	e.RemoveVowel(environment.NoVowel)
	e.RemoveComesAfter(phoneme.K)
	return e
}

func TestContainsReflexive(t *testing.T) {
	t.Parallel()

	ctx := environment.Context{Word: environment.Mid, Syllable: environment.End, Vowel: environment.AfterVowel, Prev: phoneme.AA, Next: phoneme.S}
	envs := map[string]environment.Environment{
		"global":   environment.Global(),
		"empty":    environment.Empty(),
		"narrowed": narrowed(),
		"context":  ctx.Environment(),
	}
	for name, e := range envs {
		for _, ignore := range []bool{true, false} {
			if !e.Contains(e, ignore) {
				t.Errorf("%s.Contains(itself, %v) = false", name, ignore)
			}
		}
	}
}

func TestGlobalContainsEverything(t *testing.T) {
	t.Parallel()

	g := environment.Global()
	if !g.IsGlobal() {
		t.Fatal("Global().IsGlobal() = false")
	}
	if g.DoesntComeAfter() != 0 || g.DoesntComeBefore() != 0 {
		t.Error("global environment has non-empty complements")
	}
	others := []environment.Environment{environment.Empty(), narrowed()}
	for _, s := range environment.Sites(notation.MustParse("S-T-R-IY-T K-AE-T")) {
		others = append(others, s.Context.Environment())
	}
	for _, o := range others {
		if !g.Contains(o, true) {
			t.Errorf("Global does not contain %v", o)
		}
	}
}

func TestNarrowedNeverContainsBroader(t *testing.T) {
	t.Parallel()

	n := narrowed()
	if n.Contains(environment.Global(), true) {
		t.Error("narrowed contains global (ignoring complement)")
	}
	if n.Contains(environment.Global(), false) {
		t.Error("narrowed contains global")
	}

	narrower := n
	narrower.RemoveSyllable(environment.Begin)
	if narrower.Contains(n, true) {
		t.Error("strictly narrower contains broader")
	}
	if !n.Contains(narrower, true) {
		t.Error("broader does not contain narrower")
	}
}

func TestContainsComplement(t *testing.T) {
	t.Parallel()

	g := environment.Global()
	n := environment.Global()
	n.RemoveComesBefore(phoneme.T)

	if !g.Contains(n, true) {
		t.Error("global does not positively contain narrowed adjacency")
	}
	// Global has no exceptions, so it cannot cover the exception T of n.
	if g.Contains(n, false) {
		t.Error("global covers complement of narrowed adjacency")
	}
}

func TestObserveExclude(t *testing.T) {
	t.Parallel()

	ctx := environment.Context{
		Word:     environment.Begin,
		Syllable: environment.Begin,
		Vowel:    environment.BeforeVowel,
		Prev:     phoneme.None,
		Next:     phoneme.AE,
	}
	e := environment.Global()
	e.Exclude(ctx)
	if e.Word.Has(environment.Begin) || e.Syllable.Has(environment.Begin) || e.Vowel.Has(environment.BeforeVowel) {
		t.Errorf("Exclude left context in %v", e)
	}
	if e.ComesAfter != phoneme.Consonants() || e.ComesBefore != phoneme.Consonants() {
		t.Error("Exclude touched adjacency for vowel or missing neighbours")
	}
	if e.Contains(ctx.Environment(), true) {
		t.Error("environment still contains excluded context")
	}

	e.Observe(ctx)
	if !e.IsGlobal() {
		t.Errorf("Observe after Exclude = %v, want global", e)
	}

	ctx2 := environment.Context{Word: environment.Mid, Syllable: environment.Mid, Vowel: environment.NoVowel, Prev: phoneme.S, Next: phoneme.R}
	e.Exclude(ctx2)
	if e.ComesAfter.Has(phoneme.S) || e.ComesBefore.Has(phoneme.R) {
		t.Error("Exclude kept consonant neighbours")
	}
	if !e.DoesntComeAfter().Has(phoneme.S) || !e.DoesntComeBefore().Has(phoneme.R) {
		t.Error("complement does not hold removed neighbours")
	}
}

func TestAdjacencyIgnoresVowels(t *testing.T) {
	t.Parallel()

	var e environment.Environment
	e.AddComesAfter(phoneme.AA)
	e.AddComesBefore(phoneme.None)
	if e.ComesAfter != 0 || e.ComesBefore != 0 {
		t.Errorf("vowel or None recorded as adjacency: %v", e)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	bad := environment.Global()
	bad.ComesAfter = bad.ComesAfter.Union(phoneme.SetOf(phoneme.AA))
	bad.Word = 0xff
	err := bad.Validate()
	if !errors.Is(err, environment.ErrInvalidEnvironment) {
		t.Fatalf("Validate() = %v, want ErrInvalidEnvironment", err)
	}
	if err := environment.Global().Validate(); err != nil {
		t.Errorf("Global().Validate() = %v", err)
	}
}

func TestIntersectAndSize(t *testing.T) {
	t.Parallel()

	a := environment.Global()
	a.RemoveWord(environment.Begin)
	b := environment.Global()
	b.RemoveWord(environment.End)
	b.RemoveComesBefore(phoneme.K)

	got := a.Intersect(b)
	if got.Word != environment.PositionsOf(environment.Mid) {
		t.Errorf("Intersect word = %v, want {MID}", got.Word)
	}
	if got.ComesBefore.Has(phoneme.K) {
		t.Error("Intersect kept K in comes-before")
	}
	if got.Size() >= a.Size() || got.Size() >= b.Size() {
		t.Errorf("Intersect size %d not smaller than inputs %d, %d", got.Size(), a.Size(), b.Size())
	}
	if got.String() == "GLOBAL" {
		t.Error("narrowed environment printed as GLOBAL")
	}
}

func TestSites(t *testing.T) {
	t.Parallel()

	type want struct {
		p        phoneme.Phoneme
		word     environment.Position
		syllable environment.Position
		vowel    environment.VowelAdjacency
		prev     phoneme.Phoneme
		next     phoneme.Phoneme
	}
	tests := []struct {
		in   string
		want []want
	}{
		{
			in: "K-AE-T",
			want: []want{
				{phoneme.K, environment.Begin, environment.Begin, environment.BeforeVowel, phoneme.None, phoneme.AE},
				{phoneme.AE, environment.Mid, environment.Mid, environment.NoVowel, phoneme.K, phoneme.T},
				{phoneme.T, environment.End, environment.End, environment.AfterVowel, phoneme.AE, phoneme.None},
			},
		},
		{
			in: "AA-P AX",
			want: []want{
				{phoneme.AA, environment.Begin, environment.Begin, environment.NoVowel, phoneme.None, phoneme.P},
				{phoneme.P, environment.Mid, environment.End, environment.Surrounded, phoneme.AA, phoneme.AX},
				{phoneme.AX, environment.End, environment.End, environment.NoVowel, phoneme.P, phoneme.None},
			},
		},
		{
			in: "P",
			want: []want{
				{phoneme.P, environment.End, environment.End, environment.NoVowel, phoneme.None, phoneme.None},
			},
		},
		{
			in: "S T-R",
			want: []want{
				{phoneme.S, environment.Begin, environment.End, environment.NoVowel, phoneme.None, phoneme.T},
				{phoneme.T, environment.Mid, environment.Begin, environment.NoVowel, phoneme.S, phoneme.R},
				{phoneme.R, environment.End, environment.End, environment.NoVowel, phoneme.T, phoneme.None},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			sites := environment.Sites(notation.MustParse(tt.in))
			if len(sites) != len(tt.want) {
				t.Fatalf("len(Sites) = %d, want %d", len(sites), len(tt.want))
			}
			for i, w := range tt.want {
				s := sites[i]
				c := s.Context
				if s.Phoneme != w.p || c.Word != w.word || c.Syllable != w.syllable || c.Vowel != w.vowel || c.Prev != w.prev || c.Next != w.next {
					t.Errorf("site %d = %v %v, want %v word=%v syllable=%v vowel=%v prev=%v next=%v",
						i, s.Phoneme, c, w.p, w.word, w.syllable, w.vowel, w.prev, w.next)
				}
			}
		})
	}
}

func TestPositionOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		i, n int
		want environment.Position
	}{
		{0, 1, environment.End},
		{0, 2, environment.Begin},
		{1, 2, environment.End},
		{1, 3, environment.Mid},
	}
	for _, tt := range tests {
		if got := environment.PositionOf(tt.i, tt.n); got != tt.want {
			t.Errorf("PositionOf(%d, %d) = %v, want %v", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestPositionAndAdjacencySets(t *testing.T) {
	t.Parallel()

	ps := environment.PositionsOf(environment.Begin).With(environment.End)
	if !ps.Has(environment.End) || ps.Has(environment.Mid) || ps.Len() != 2 {
		t.Errorf("PositionsOf(Begin)+End = %v", ps)
	}
	if got := ps.Without(environment.Begin); got.Has(environment.Begin) || got.Len() != 1 {
		t.Errorf("Without(Begin) = %v", got)
	}
	if !environment.AllPositions.Contains(ps) || ps.Contains(environment.AllPositions) {
		t.Error("AllPositions and a two-member set do not nest")
	}

	vs := environment.VowelAdjacenciesOf(environment.NoVowel, environment.Surrounded)
	if !vs.Has(environment.Surrounded) || vs.Len() != 2 {
		t.Errorf("VowelAdjacenciesOf = %v", vs)
	}
	if got := vs.Without(environment.NoVowel); got.Has(environment.NoVowel) || got.Len() != 1 {
		t.Errorf("Without(NoVowel) = %v", got)
	}
	if !environment.AllVowelAdjacencies.Contains(vs) || vs.Contains(environment.AllVowelAdjacencies) {
		t.Error("AllVowelAdjacencies and a two-member set do not nest")
	}
}
