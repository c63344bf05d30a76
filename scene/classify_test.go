package scene

import (
	"fmt"
	"testing"
)

func meshNode(name string, scale Vec3) *Node {
	return &Node{Name: name, Scale: scale}
}

func TestClassifyByName(t *testing.T) {
	t.Parallel()

	root := &Node{
		Name:  "Root",
		Scale: Vec3{X: 1, Y: 1, Z: 1},
		Children: []*Node{
			meshNode("LeftEye", Vec3{X: 1, Y: 2, Z: 1}),
			meshNode("right_eyelid", Vec3{X: 1, Y: 1, Z: 1}),
			meshNode("UpperLid", Vec3{X: 1, Y: 1, Z: 1}),
			meshNode("Mouth", Vec3{X: 3, Y: 1, Z: 1}),
			meshNode("LowerJaw", Vec3{X: 1, Y: 1, Z: 1}),
			meshNode("Torso", Vec3{X: 1, Y: 1, Z: 1}),
		},
	}
	g := NewGraph(root)
	table := Classify(g)

	if len(table.Eyes) != 3 {
		t.Fatalf("expected 3 eye meshes, got %d", len(table.Eyes))
	}
	if table.Mouth == nil {
		t.Fatal("expected a mouth mesh")
	}
	// First qualifying mouth mesh wins; LowerJaw must be skipped.
	if got := g.Node(table.Mouth.Index).Name; got != "Mouth" {
		t.Errorf("expected first mouth match to win, got %q", got)
	}
}

func TestClassifyCapturesRestScale(t *testing.T) {
	t.Parallel()

	eye := meshNode("Eye", Vec3{X: 0.5, Y: 2, Z: 1.5})
	mouth := meshNode("Mouth", Vec3{X: 3, Y: 0.25, Z: 1})
	g := NewGraph(&Node{Name: "Root", Children: []*Node{eye, mouth}})
	table := Classify(g)

	if len(table.Eyes) != 1 {
		t.Fatalf("expected 1 eye, got %d", len(table.Eyes))
	}
	if table.Eyes[0].RestScale != (Vec3{X: 0.5, Y: 2, Z: 1.5}) {
		t.Errorf("eye rest scale not captured: %+v", table.Eyes[0].RestScale)
	}
	if table.Mouth.RestScale != (Vec3{X: 3, Y: 0.25, Z: 1}) {
		t.Errorf("mouth rest scale not captured: %+v", table.Mouth.RestScale)
	}
}

func TestClassifyHeuristicFallback(t *testing.T) {
	t.Parallel()

	small := Vec3{X: 0.1, Y: 0.1, Z: 0.1}
	root := &Node{
		Name: "Root",
		Children: []*Node{
			// Qualifies: small, upper, centered.
			{Name: "node_a", Position: Vec3{X: 0.2, Y: 1}, BoundsMax: small},
			// Too large a bounding box.
			{Name: "node_b", Position: Vec3{Y: 1}, BoundsMax: Vec3{X: 1, Y: 1, Z: 1}},
			// Below the origin.
			{Name: "node_c", Position: Vec3{Y: -0.5}, BoundsMax: small},
			// Too far off-center.
			{Name: "node_d", Position: Vec3{X: 1.5, Y: 1}, BoundsMax: small},
			// Qualifies.
			{Name: "node_e", Position: Vec3{X: -0.2, Y: 1}, BoundsMax: small},
		},
	}
	g := NewGraph(root)
	table := Classify(g)

	if len(table.Eyes) != 2 {
		t.Fatalf("expected 2 heuristic eyes, got %d", len(table.Eyes))
	}
	for _, e := range table.Eyes {
		name := g.Node(e.Index).Name
		if name != "node_a" && name != "node_e" {
			t.Errorf("unexpected heuristic candidate %q", name)
		}
	}
}

func TestClassifyHeuristicOnlyWithoutNamedEyes(t *testing.T) {
	t.Parallel()

	small := Vec3{X: 0.1, Y: 0.1, Z: 0.1}
	root := &Node{
		Name: "Root",
		Children: []*Node{
			meshNode("Eye", Vec3{X: 1, Y: 1, Z: 1}),
			// Would qualify heuristically, but must be ignored.
			{Name: "bead", Position: Vec3{Y: 1}, BoundsMax: small},
		},
	}
	table := Classify(NewGraph(root))

	if len(table.Eyes) != 1 {
		t.Fatalf("heuristic ran despite a named eye: got %d eyes", len(table.Eyes))
	}
}

func TestClassifyHeuristicCap(t *testing.T) {
	t.Parallel()

	small := Vec3{X: 0.1, Y: 0.1, Z: 0.1}
	root := &Node{Name: "Root"}
	for i := 0; i < 25; i++ {
		root.Children = append(root.Children, &Node{
			Name:      fmt.Sprintf("node_%d", i),
			Position:  Vec3{Y: 1},
			BoundsMax: small,
		})
	}
	table := Classify(NewGraph(root))

	if len(table.Eyes) != 10 {
		t.Fatalf("expected heuristic cap of 10, got %d", len(table.Eyes))
	}
}

func TestClassifyNothingFound(t *testing.T) {
	t.Parallel()

	root := &Node{
		Name: "Root",
		Children: []*Node{
			{Name: "Torso", BoundsMax: Vec3{X: 2, Y: 2, Z: 2}},
		},
	}
	table := Classify(NewGraph(root))

	if len(table.Eyes) != 0 {
		t.Errorf("expected no eyes, got %d", len(table.Eyes))
	}
	if table.Mouth != nil {
		t.Error("expected no mouth")
	}
}

func TestClassifyNilGraph(t *testing.T) {
	t.Parallel()

	table := Classify(nil)
	if len(table.Eyes) != 0 || table.Mouth != nil {
		t.Error("nil graph must classify to an empty table")
	}
}
