package domain

import "fmt"

// GestureKind identifies the input that produced a gesture event.
type GestureKind string

const (
	GesturePan   GestureKind = "pan"
	GestureZoom  GestureKind = "zoom"
	GestureWheel GestureKind = "wheel"
	GestureTouch GestureKind = "touch"
)

// GesturePhase is the position of an event within a gesture.
type GesturePhase string

const (
	PhaseStart GesturePhase = "start"
	PhaseMove  GesturePhase = "move"
	PhaseEnd   GesturePhase = "end"
)

// Gesture is one user interaction event reported by the rendering surface.
type Gesture struct {
	Kind  GestureKind  `json:"kind"`
	Phase GesturePhase `json:"phase"`
}

// Validate rejects unknown kinds and phases.
func (g Gesture) Validate() error {
	switch g.Kind {
	case GesturePan, GestureZoom, GestureWheel, GestureTouch:
	default:
		return fmt.Errorf("unknown gesture kind %q", g.Kind)
	}
	switch g.Phase {
	case PhaseStart, PhaseMove, PhaseEnd:
	case "":
	default:
		return fmt.Errorf("unknown gesture phase %q", g.Phase)
	}
	return nil
}
