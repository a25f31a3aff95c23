package config

import (
	"cmp"
	"slices"
)

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	SpeakersChanged bool          // true if any speaker was added, removed or retargeted
	SpeakerChanges  []SpeakerDiff // per-speaker diffs, ordered by name
	TrainingChanged bool          // global training options changed; every speaker must retrain
	LogLevelChanged bool
	NewLogLevel     LogLevel
}

// SpeakerDiff describes what changed for a single speaker between two configs.
type SpeakerDiff struct {
	Name          string
	SourceChanged bool // file or format changed
	OptionChanged bool // per-speaker training override changed
	Added         bool
	Removed       bool
}

// Retrain reports whether the speaker's model must be rebuilt.
func (d SpeakerDiff) Retrain() bool {
	return d.Added || d.SourceChanged || d.OptionChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Training != new.Training {
		d.TrainingChanged = true
	}

	oldSpeakers := make(map[string]*SpeakerConfig, len(old.Speakers))
	for i := range old.Speakers {
		oldSpeakers[old.Speakers[i].Name] = &old.Speakers[i]
	}
	newSpeakers := make(map[string]*SpeakerConfig, len(new.Speakers))
	for i := range new.Speakers {
		newSpeakers[new.Speakers[i].Name] = &new.Speakers[i]
	}

	for name, o := range oldSpeakers {
		n, exists := newSpeakers[name]
		if !exists {
			d.SpeakerChanges = append(d.SpeakerChanges, SpeakerDiff{Name: name, Removed: true})
			continue
		}
		sd := SpeakerDiff{
			Name:          name,
			SourceChanged: o.File != n.File || o.Format != n.Format,
			OptionChanged: !equalOverride(o.ContrastRefinement, n.ContrastRefinement),
		}
		if sd.SourceChanged || sd.OptionChanged {
			d.SpeakerChanges = append(d.SpeakerChanges, sd)
		}
	}
	for name := range newSpeakers {
		if _, exists := oldSpeakers[name]; !exists {
			d.SpeakerChanges = append(d.SpeakerChanges, SpeakerDiff{Name: name, Added: true})
		}
	}

	slices.SortFunc(d.SpeakerChanges, func(a, b SpeakerDiff) int {
		return cmp.Compare(a.Name, b.Name)
	})
	d.SpeakersChanged = len(d.SpeakerChanges) > 0
	return d
}

func equalOverride(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
