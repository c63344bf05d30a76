package scene

import (
	"log"
	"strings"
)

// Heuristic thresholds for the no-named-eyes fallback scan.
const (
	eyeDiagonalMax   = 0.5
	eyeRegionMaxAbsX = 1.0
	maxHeuristicEyes = 10
)

var (
	eyePatterns   = []string{"eye", "eyelid", "lid"}
	mouthPatterns = []string{"mouth", "lip", "jaw"}
)

// MeshClass is the classification assigned to a scene node.
type MeshClass int

const (
	Unclassified MeshClass = iota
	EyeMesh
	MouthMesh
)

// MeshRef is a lightweight handle to a classified node: its index in
// the graph plus the scale captured before any animation touched it.
type MeshRef struct {
	Index     int
	RestScale Vec3
}

// MeshTable is the classifier output consumed by the animators. It is
// rebuilt wholesale on every model load and treated as immutable in
// between.
type MeshTable struct {
	Eyes  []MeshRef
	Mouth *MeshRef
}

// Classify walks every node in the graph and builds the mesh table.
// All name-matched eye meshes are kept; only the first name-matched
// mouth mesh is kept. When no eye mesh matches by name, a geometric
// fallback scans for small meshes in the upper, centered region of the
// model and accepts at most ten candidates. Classification never
// fails: missing eyes or mouth just disables the matching animation.
func Classify(g *Graph) *MeshTable {
	t := &MeshTable{}
	if g == nil {
		return t
	}

	for i := 0; i < g.Len(); i++ {
		n := g.Node(i)
		name := strings.ToLower(n.Name)
		if matchesAny(name, eyePatterns) {
			t.Eyes = append(t.Eyes, MeshRef{Index: i, RestScale: n.Scale})
			continue
		}
		if t.Mouth == nil && matchesAny(name, mouthPatterns) {
			t.Mouth = &MeshRef{Index: i, RestScale: n.Scale}
		}
	}

	if len(t.Eyes) == 0 {
		t.Eyes = heuristicEyes(g, t.Mouth)
		if len(t.Eyes) > 0 {
			log.Printf("scene: no eye meshes matched by name, using %d heuristic candidates", len(t.Eyes))
		}
	}

	if len(t.Eyes) == 0 {
		log.Printf("scene: no eye meshes found, blinking disabled")
	}
	if t.Mouth == nil {
		log.Printf("scene: no mouth mesh found, mouth animation disabled")
	}
	return t
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// heuristicEyes scans all nodes for small meshes positioned in the
// upper, centered region of the model space.
func heuristicEyes(g *Graph, mouth *MeshRef) []MeshRef {
	var eyes []MeshRef
	for i := 0; i < g.Len() && len(eyes) < maxHeuristicEyes; i++ {
		if mouth != nil && mouth.Index == i {
			continue
		}
		n := g.Node(i)
		if n.BoundsDiagonal() >= eyeDiagonalMax {
			continue
		}
		w := g.WorldPosition(i)
		if w.Y <= 0 || w.X >= eyeRegionMaxAbsX || w.X <= -eyeRegionMaxAbsX {
			continue
		}
		eyes = append(eyes, MeshRef{Index: i, RestScale: n.Scale})
	}
	return eyes
}
