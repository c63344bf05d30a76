package anim

import (
	"math"
	"sync"
	"time"

	"github.com/seven0070/yumiai/scene"
)

// Idle sway applied to the model root every frame.
const (
	swayRate      = 0.3
	swayAmplitude = 0.1
)

// Rig ties the classified mesh table to the blink and mouth state
// machines. Advance is called once per rendered frame; Speak may be
// called from any goroutine.
type Rig struct {
	mu    sync.Mutex
	graph *scene.Graph
	table *scene.MeshTable
	blink blinkState
	mouth mouthState
	start time.Time

	// Latched by Speak and applied on the next Advance, so the mouth
	// deadline is stamped with the frame clock rather than the
	// trigger caller's wall clock.
	pendingSpeak *time.Duration
}

// NewRig classifies the graph and registers the rig as the global
// speak trigger. A nil graph is allowed: every operation degrades to a
// no-op until Reload is called.
func NewRig(g *scene.Graph, tuning Tuning) *Rig {
	r := &Rig{
		blink: blinkState{
			interval: tuning.BlinkInterval(),
			duration: tuning.BlinkDuration(),
		},
	}
	if g != nil {
		r.graph = g
		r.table = scene.Classify(g)
	}
	RegisterSpeakTrigger(r.Speak)
	return r
}

// Reload swaps in a new model and reclassifies wholesale. The old mesh
// table is discarded, never patched.
func (r *Rig) Reload(g *scene.Graph) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graph = g
	if g != nil {
		r.table = scene.Classify(g)
	} else {
		r.table = nil
	}
	r.blink = blinkState{interval: r.blink.interval, duration: r.blink.duration}
	r.mouth = mouthState{}
	r.pendingSpeak = nil
}

// Speak arms the mouth animator for d, taking effect on the next
// frame. Non-positive d forces silence. Overlapping calls before the
// next frame overwrite each other (last-writer-wins).
func (r *Rig) Speak(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingSpeak = &d
}

// Advance runs one frame tick: idle sway on the root, then blink, then
// mouth. State is read-modify-written exactly once per call.
func (r *Rig) Advance(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.graph == nil || r.table == nil {
		return
	}
	if r.start.IsZero() {
		r.start = now
	}
	elapsed := now.Sub(r.start).Seconds()

	if r.pendingSpeak != nil {
		r.mouth.speak(now, *r.pendingSpeak)
		r.pendingSpeak = nil
	}

	r.graph.Root.RotationY = math.Sin(elapsed*swayRate) * swayAmplitude
	r.blink.advance(now, r.graph, r.table.Eyes)
	r.mouth.advance(now, elapsed, r.graph, r.table.Mouth)
}

// Intensity reports the current mouth intensity, for status display.
func (r *Rig) Intensity() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mouth.current
}

// Close deregisters the global speak trigger.
func (r *Rig) Close() {
	RegisterSpeakTrigger(nil)
}
