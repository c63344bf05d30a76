package anim

import (
	"sync"
	"time"
)

var (
	triggerMu    sync.Mutex
	speakTrigger func(time.Duration)
)

// RegisterSpeakTrigger installs the process-wide mouth trigger.
// Re-registration overwrites silently; nil deregisters. At most one
// registration is active at a time.
func RegisterSpeakTrigger(fn func(time.Duration)) {
	triggerMu.Lock()
	speakTrigger = fn
	triggerMu.Unlock()
}

// TriggerSpeak invokes the registered mouth trigger. Safe to call with
// nothing registered (no model loaded): it is a no-op.
func TriggerSpeak(d time.Duration) {
	triggerMu.Lock()
	fn := speakTrigger
	triggerMu.Unlock()
	if fn != nil {
		fn(d)
	}
}
