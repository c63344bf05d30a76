package anim

import (
	"time"

	"github.com/seven0070/yumiai/scene"
)

// Eyes never scale to exactly zero during a blink.
const blinkClosureFloor = 0.1

// blinkState is the free-running blink scheduler. The interval timer
// is anchored at blink start, so the cadence is independent of the
// blink duration.
type blinkState struct {
	interval time.Duration
	duration time.Duration

	blinking    bool
	lastBlinkAt time.Time
	startedAt   time.Time
}

func (b *blinkState) advance(now time.Time, g *scene.Graph, eyes []scene.MeshRef) {
	if len(eyes) == 0 {
		return
	}
	if b.lastBlinkAt.IsZero() {
		b.lastBlinkAt = now
	}

	if !b.blinking {
		if now.Sub(b.lastBlinkAt) > b.interval {
			b.blinking = true
			b.startedAt = now
			b.lastBlinkAt = now
		} else {
			return
		}
	}

	progress := float64(now.Sub(b.startedAt)) / float64(b.duration)
	if progress >= 1 {
		// Restore the full rest scale vector, not just Y, so no
		// floating error accumulates across cycles.
		for _, e := range eyes {
			g.Node(e.Index).Scale = e.RestScale
		}
		b.blinking = false
		return
	}
	if progress < 0 {
		progress = 0
	}

	closure := blinkClosure(progress)
	for _, e := range eyes {
		n := g.Node(e.Index)
		n.Scale.X = e.RestScale.X
		n.Scale.Y = e.RestScale.Y * closure
		n.Scale.Z = e.RestScale.Z
	}
}

// blinkClosure is the V-shaped envelope: full open at the edges,
// closed to the floor at the midpoint.
func blinkClosure(progress float64) float64 {
	span := 1 - blinkClosureFloor
	if progress < 0.5 {
		return 1 - span*(progress/0.5)
	}
	return blinkClosureFloor + span*((progress-0.5)/0.5)
}
