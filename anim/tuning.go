// Package anim drives the avatar's per-frame animation: autonomous
// blinking, idle sway, and externally triggered mouth movement over
// the classified mesh table.
package anim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default animation timing.
const (
	DefaultBlinkInterval = 4500 * time.Millisecond
	DefaultBlinkDuration = 150 * time.Millisecond
	DefaultSpeakDuration = 2000 * time.Millisecond
)

// Tuning holds the adjustable animation timings. Zero fields fall back
// to the defaults above.
type Tuning struct {
	BlinkIntervalMs int `yaml:"blink_interval_ms"`
	BlinkDurationMs int `yaml:"blink_duration_ms"`
	SpeakDefaultMs  int `yaml:"speak_default_ms"`
}

// BlinkInterval returns the configured blink interval or the default.
func (t Tuning) BlinkInterval() time.Duration {
	if t.BlinkIntervalMs > 0 {
		return time.Duration(t.BlinkIntervalMs) * time.Millisecond
	}
	return DefaultBlinkInterval
}

// BlinkDuration returns the configured blink duration or the default.
func (t Tuning) BlinkDuration() time.Duration {
	if t.BlinkDurationMs > 0 {
		return time.Duration(t.BlinkDurationMs) * time.Millisecond
	}
	return DefaultBlinkDuration
}

// SpeakDefault returns the default mouth animation duration used when
// an agent event carries no explicit duration.
func (t Tuning) SpeakDefault() time.Duration {
	if t.SpeakDefaultMs > 0 {
		return time.Duration(t.SpeakDefaultMs) * time.Millisecond
	}
	return DefaultSpeakDuration
}

// LoadTuning reads a YAML tuning file.
func LoadTuning(path string) (Tuning, error) {
	var t Tuning
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	return t, nil
}
