package config_test

import (
	"testing"

	"github.com/MrWong99/phonoshift/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server:   config.ServerConfig{LogLevel: config.LogInfo},
		Speakers: []config.SpeakerConfig{{Name: "alex", File: "alex.txt", Format: config.FormatLines}},
	}
	d := config.Diff(cfg, cfg)
	if d.SpeakersChanged || d.LogLevelChanged || d.TrainingChanged {
		t.Errorf("expected no changes, got %+v", d)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogInfo}}
	new := &config.Config{Server: config.ServerConfig{LogLevel: config.LogDebug}}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
}

func TestDiff_TrainingChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{}
	new := &config.Config{Training: config.TrainingConfig{ContrastRefinement: true}}
	if d := config.Diff(old, new); !d.TrainingChanged {
		t.Error("expected TrainingChanged=true")
	}
}

func TestDiff_Speakers(t *testing.T) {
	t.Parallel()
	old := &config.Config{Speakers: []config.SpeakerConfig{
		{Name: "alex", File: "alex.txt"},
		{Name: "kim", File: "kim.txt"},
		{Name: "sam", File: "sam.txt"},
		{Name: "lee", File: "lee.txt", ContrastRefinement: boolPtr(true)},
	}}
	new := &config.Config{Speakers: []config.SpeakerConfig{
		{Name: "alex", File: "alex-v2.txt"},
		{Name: "sam", File: "sam.txt"},
		{Name: "lee", File: "lee.txt", ContrastRefinement: boolPtr(false)},
		{Name: "zoe", File: "zoe.yaml"},
	}}

	d := config.Diff(old, new)
	if !d.SpeakersChanged {
		t.Fatal("expected SpeakersChanged=true")
	}
	want := []config.SpeakerDiff{
		{Name: "alex", SourceChanged: true},
		{Name: "kim", Removed: true},
		{Name: "lee", OptionChanged: true},
		{Name: "zoe", Added: true},
	}
	if len(d.SpeakerChanges) != len(want) {
		t.Fatalf("changes: got %+v, want %+v", d.SpeakerChanges, want)
	}
	for i, w := range want {
		if d.SpeakerChanges[i] != w {
			t.Errorf("change %d: got %+v, want %+v", i, d.SpeakerChanges[i], w)
		}
	}
	if d.SpeakerChanges[1].Retrain() {
		t.Error("removed speaker should not retrain")
	}
	for _, i := range []int{0, 2, 3} {
		if !d.SpeakerChanges[i].Retrain() {
			t.Errorf("change %d should retrain", i)
		}
	}
}
