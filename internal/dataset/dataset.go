// Package dataset reads training pairs from files and keeps them in a
// [Store].
//
// Two file formats are built in. The "lines" format alternates a target line
// with the line the speaker actually produced:
//
//	# velar fronting
//	K-AE T
//	T-AE T
//
// Blank lines and lines starting with '#' are skipped and every phoneme line
// is upper-cased. The "yaml" format is a document with a pairs list:
//
//	pairs:
//	  - target: K-AE T
//	    actual: T-AE T
//
// Further formats can be added with [Register].
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/phonoshift/pkg/rules"
)

// ErrUnknownFormat is returned when no decoder is registered for a format.
var ErrUnknownFormat = errors.New("dataset: unknown format")

// ErrUnpairedLine is returned when a lines file ends with a target that has
// no observed line.
var ErrUnpairedLine = errors.New("dataset: target line without observed line")

// DecodeFunc reads training pairs from r.
type DecodeFunc func(r io.Reader) ([]rules.Pair, error)

var (
	mu       sync.RWMutex
	decoders = map[string]DecodeFunc{
		"lines": DecodeLines,
		"yaml":  DecodeYAML,
	}
)

// Register makes a decoder available under name, replacing any previous one.
func Register(name string, fn DecodeFunc) {
	mu.Lock()
	defer mu.Unlock()
	decoders[name] = fn
}

// Formats returns the registered format names in sorted order.
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Decode reads pairs from r using the decoder registered for format.
func Decode(r io.Reader, format string) ([]rules.Pair, error) {
	mu.RLock()
	fn, ok := decoders[format]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
	return fn(r)
}

// Load reads the training file at path in the given format.
func Load(path, format string) ([]rules.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	pairs, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	return pairs, nil
}

// DecodeLines reads the alternating target/observed line format.
func DecodeLines(r io.Reader) ([]rules.Pair, error) {
	var (
		pairs   []rules.Pair
		pending string
		pendAt  int
		lineNo  int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.ToUpper(line)
		if pendAt == 0 {
			pending, pendAt = line, lineNo
			continue
		}
		pairs = append(pairs, rules.Pair{Target: pending, Actual: line})
		pendAt = 0
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read lines: %w", err)
	}
	if pendAt != 0 {
		return nil, fmt.Errorf("%w at line %d (%q)", ErrUnpairedLine, pendAt, pending)
	}
	return pairs, nil
}

type yamlFile struct {
	Pairs []rules.Pair `yaml:"pairs"`
}

// DecodeYAML reads a YAML document with a top-level pairs list. Unknown
// fields are rejected.
func DecodeYAML(r io.Reader) ([]rules.Pair, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc yamlFile
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("dataset: decode yaml: %w", err)
	}
	for i, p := range doc.Pairs {
		doc.Pairs[i] = rules.Pair{
			Target: strings.ToUpper(strings.TrimSpace(p.Target)),
			Actual: strings.ToUpper(strings.TrimSpace(p.Actual)),
		}
	}
	return doc.Pairs, nil
}
