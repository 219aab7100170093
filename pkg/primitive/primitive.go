// Package primitive tessellates simple reference solids into triangle
// meshes using the sdfx geometry kernel. It exists for two consumers:
// instructors authoring quick reference models without CAD files, and
// test fixtures that need real watertight geometry.
package primitive

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/calipers/pkg/mesh"
)

// DefaultCells controls marching cubes tessellation resolution when a
// caller passes cells <= 0.
const DefaultCells = 100

// Box tessellates an axis-aligned box centered at the origin.
func Box(x, y, z float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("primitive: box: %w", err)
	}
	return toMesh(s, cells)
}

// Cylinder tessellates a cylinder centered at the origin, axis on Z.
func Cylinder(height, radius float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("primitive: cylinder: %w", err)
	}
	return toMesh(s, cells)
}

// Sphere tessellates a sphere centered at the origin.
func Sphere(radius float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("primitive: sphere: %w", err)
	}
	return toMesh(s, cells)
}

// toMesh runs marching cubes over the SDF and builds an indexed mesh.
// Marching cubes emits triangle soup; vertices are merged so the result
// carries shared edges and reads as watertight.
func toMesh(s sdf.SDF3, cells int) (*mesh.Mesh, error) {
	if cells <= 0 {
		cells = DefaultCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("primitive: tessellation produced no triangles")
	}

	m := &mesh.Mesh{}
	index := make(map[[3]float64]int, len(triangles))
	for _, tri := range triangles {
		var face [3]int
		for j := 0; j < 3; j++ {
			v := tri[j]
			key := [3]float64{v.X, v.Y, v.Z}
			i, ok := index[key]
			if !ok {
				i = len(m.Vertices)
				index[key] = i
				m.Vertices = append(m.Vertices, mesh.Vec3{X: v.X, Y: v.Y, Z: v.Z})
			}
			face[j] = i
		}
		m.Faces = append(m.Faces, face)
	}
	return m, nil
}
