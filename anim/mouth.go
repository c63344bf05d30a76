package anim

import (
	"math"
	"time"

	"github.com/seven0070/yumiai/scene"
)

const (
	speakTarget        = 0.8
	intensitySmoothing = 0.1
	mouthOpenGain      = 0.3
	jitterAmplitude    = 0.05
	jitterRate         = 20.0
	silenceThreshold   = 0.01
)

// mouthState is the triggerable mouth animator. Intensity converges
// toward the target geometrically every frame; the mesh is only
// touched while intensity is above the silence threshold.
type mouthState struct {
	speaking bool
	endsAt   time.Time
	current  float64
	target   float64
}

// speak arms the animator for d. A non-positive d forces immediate
// silence. Overlapping calls overwrite the deadline and target
// (last-writer-wins, no queueing).
func (m *mouthState) speak(now time.Time, d time.Duration) {
	if d <= 0 {
		m.speaking = false
		m.endsAt = now
		m.target = 0
		return
	}
	m.speaking = true
	m.endsAt = now.Add(d)
	m.target = speakTarget
}

func (m *mouthState) advance(now time.Time, elapsed float64, g *scene.Graph, mouth *scene.MeshRef) {
	if m.speaking && now.After(m.endsAt) {
		m.speaking = false
		m.target = 0
	}
	m.current += (m.target - m.current) * intensitySmoothing

	if mouth == nil {
		return
	}
	n := g.Node(mouth.Index)
	if m.current <= silenceThreshold {
		n.Scale = mouth.RestScale
		return
	}
	n.Scale.Y = mouth.RestScale.Y * (1 + mouthOpenGain*m.current)
	n.Scale.X = mouth.RestScale.X * (1 + math.Sin(elapsed*jitterRate)*jitterAmplitude*m.current)
	n.Scale.Z = mouth.RestScale.Z
}
