// Package scene holds the loaded 3D scene graph and the mesh
// classification consumed by the animation layer.
package scene

import "math"

// Vec3 is a 3-component vector.
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// Length returns the Euclidean length of the vector.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Node is one mesh node in the scene graph. Position and bounds are
// local; scale is mutated by the animators and restored from the
// captured rest scale.
type Node struct {
	Name      string  `yaml:"name"`
	Position  Vec3    `yaml:"position"`
	Scale     Vec3    `yaml:"scale"`
	BoundsMin Vec3    `yaml:"bounds_min"`
	BoundsMax Vec3    `yaml:"bounds_max"`
	RotationY float64 `yaml:"-"`
	Children  []*Node `yaml:"children"`
}

// BoundsDiagonal returns the length of the local bounding-box diagonal.
func (n *Node) BoundsDiagonal() float64 {
	return n.BoundsMax.Sub(n.BoundsMin).Length()
}

// Graph is a loaded scene with a flat node index. Animators address
// nodes by index so ownership of the tree stays with the loader.
type Graph struct {
	Root  *Node
	nodes []*Node
	world []Vec3
}

// NewGraph flattens the tree rooted at root and computes world
// positions by accumulating local positions along each ancestor chain.
func NewGraph(root *Node) *Graph {
	g := &Graph{Root: root}
	if root != nil {
		g.index(root, Vec3{})
	}
	return g
}

func (g *Graph) index(n *Node, parentWorld Vec3) {
	world := parentWorld.Add(n.Position)
	g.nodes = append(g.nodes, n)
	g.world = append(g.world, world)
	for _, c := range n.Children {
		g.index(c, world)
	}
}

// Len returns the number of indexed nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node at index i.
func (g *Graph) Node(i int) *Node { return g.nodes[i] }

// WorldPosition returns the precomputed world position of node i.
func (g *Graph) WorldPosition(i int) Vec3 { return g.world[i] }
