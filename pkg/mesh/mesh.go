// Package mesh defines the triangle mesh type consumed by the evaluation
// engine, along with validation, watertightness detection and file loading
// collaborators. The engine treats meshes as read-only input; nothing in
// this package mutates a mesh after construction.
package mesh

import (
	"fmt"
	"math"
)

// Vec3 is a 3D vector with float64 components.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Cross returns the cross product v × w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Mesh is an indexed triangle mesh. Vertices holds the vertex positions
// and each face references three of them by index.
type Mesh struct {
	Vertices []Vec3
	Faces    [][3]int
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// FaceArea returns the area of face i.
func (m *Mesh) FaceArea(i int) float64 {
	f := m.Faces[i]
	a := m.Vertices[f[0]]
	b := m.Vertices[f[1]]
	c := m.Vertices[f[2]]
	return b.Sub(a).Cross(c.Sub(a)).Norm() / 2
}

// edge is an undirected vertex pair with lo <= hi.
type edge struct {
	lo, hi int
}

func makeEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{lo: a, hi: b}
}

// Watertight reports whether every edge of the mesh is shared by exactly
// two faces, i.e. the surface is closed with no boundary edges.
func (m *Mesh) Watertight() bool {
	if len(m.Faces) == 0 {
		return false
	}
	counts := make(map[edge]int, len(m.Faces)*3/2)
	for _, f := range m.Faces {
		counts[makeEdge(f[0], f[1])]++
		counts[makeEdge(f[1], f[2])]++
		counts[makeEdge(f[2], f[0])]++
	}
	for _, n := range counts {
		if n != 2 {
			return false
		}
	}
	return true
}

// InvalidMeshError reports a mesh that cannot be evaluated at all:
// no vertices, no faces, or faces referencing missing vertices.
type InvalidMeshError struct {
	Reason string
}

func (e *InvalidMeshError) Error() string {
	return "invalid mesh: " + e.Reason
}

// Validate checks that the mesh has geometry and consistent face indices.
// A mesh that fails validation must be rejected before sampling.
func (m *Mesh) Validate() error {
	if len(m.Vertices) == 0 {
		return &InvalidMeshError{Reason: "mesh has no vertices"}
	}
	if len(m.Faces) == 0 {
		return &InvalidMeshError{Reason: "mesh has no faces"}
	}
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return &InvalidMeshError{
					Reason: fmt.Sprintf("face %d references vertex %d, mesh has %d vertices", i, idx, len(m.Vertices)),
				}
			}
		}
	}
	return nil
}
