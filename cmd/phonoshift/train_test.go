package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fronting = `P-AA-T
P-AA-T
K-AE-T
T-AE-T
D-EY
D-EY
`

func writeTrainingFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTrain_PrintsGuesses(t *testing.T) {
	t.Parallel()
	path := writeTrainingFile(t, "alex.txt", fronting)

	var buf bytes.Buffer
	if err := train(&buf, path, []string{"G-EY-M", "K-UH-M"}, trainOptions{}); err != nil {
		t.Fatalf("train: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q, want 2 lines", buf.String())
	}
	for i, want := range []string{"D-EY-M", "T-UH-M"} {
		if fields := strings.Fields(lines[i]); len(fields) != 2 || fields[1] != want {
			t.Errorf("line %d = %q, want guess %q", i, lines[i], want)
		}
	}
}

func TestTrain_Explain(t *testing.T) {
	t.Parallel()
	path := writeTrainingFile(t, "alex.txt", fronting)

	var buf bytes.Buffer
	if err := train(&buf, path, []string{"G-EY-M"}, trainOptions{explain: true}); err != nil {
		t.Fatalf("train: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "G -> D") || !strings.Contains(out, "generalized") {
		t.Errorf("explain output missing the generalized decision:\n%s", out)
	}
}

func TestTrain_ListsRulesWithoutWords(t *testing.T) {
	t.Parallel()
	path := writeTrainingFile(t, "alex.yaml", "pairs:\n  - {target: K-AE-T, actual: T-AE-T}\n")

	var buf bytes.Buffer
	if err := train(&buf, path, nil, trainOptions{}); err != nil {
		t.Fatalf("train: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "# 1 pairs") || !strings.Contains(out, "specific") {
		t.Errorf("rule listing = %q", out)
	}
}

func TestTrain_Errors(t *testing.T) {
	t.Parallel()
	good := writeTrainingFile(t, "alex.txt", fronting)
	tests := []struct {
		name  string
		path  string
		words []string
		opts  trainOptions
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.txt"), nil, trainOptions{}},
		{"unknown format", good, nil, trainOptions{format: "csv"}},
		{"bad word", good, []string{"K-XX"}, trainOptions{}},
		{"bad pairs", writeTrainingFile(t, "bad.txt", "K-AE-T\nT-AE\n"), nil, trainOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := train(&bytes.Buffer{}, tt.path, tt.words, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}
