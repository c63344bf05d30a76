package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML scene description (an asset-pipeline export of the
// model's node hierarchy) and returns the indexed graph. Nodes with an
// omitted scale default to unit scale.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse scene file: %w", err)
	}
	normalize(&root)
	return NewGraph(&root), nil
}

func normalize(n *Node) {
	if n.Scale == (Vec3{}) {
		n.Scale = Vec3{X: 1, Y: 1, Z: 1}
	}
	for _, c := range n.Children {
		normalize(c)
	}
}

// Default returns a built-in stand-in head model used when no scene
// file is configured. Mesh names follow the classifier's conventions.
func Default() *Graph {
	root := &Node{
		Name:  "AvatarRoot",
		Scale: Vec3{X: 1, Y: 1, Z: 1},
		Children: []*Node{
			{
				Name:      "Head",
				Position:  Vec3{Y: 1.5},
				Scale:     Vec3{X: 1, Y: 1, Z: 1},
				BoundsMin: Vec3{X: -0.5, Y: -0.5, Z: -0.5},
				BoundsMax: Vec3{X: 0.5, Y: 0.5, Z: 0.5},
				Children: []*Node{
					{
						Name:      "EyeLeft",
						Position:  Vec3{X: -0.15, Y: 0.1, Z: 0.4},
						Scale:     Vec3{X: 1, Y: 1, Z: 1},
						BoundsMin: Vec3{X: -0.05, Y: -0.05, Z: -0.02},
						BoundsMax: Vec3{X: 0.05, Y: 0.05, Z: 0.02},
					},
					{
						Name:      "EyeRight",
						Position:  Vec3{X: 0.15, Y: 0.1, Z: 0.4},
						Scale:     Vec3{X: 1, Y: 1, Z: 1},
						BoundsMin: Vec3{X: -0.05, Y: -0.05, Z: -0.02},
						BoundsMax: Vec3{X: 0.05, Y: 0.05, Z: 0.02},
					},
					{
						Name:      "Mouth",
						Position:  Vec3{Y: -0.2, Z: 0.4},
						Scale:     Vec3{X: 1, Y: 1, Z: 1},
						BoundsMin: Vec3{X: -0.12, Y: -0.04, Z: -0.02},
						BoundsMax: Vec3{X: 0.12, Y: 0.04, Z: 0.02},
					},
				},
			},
		},
	}
	return NewGraph(root)
}
