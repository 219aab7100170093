// Package sample converts a triangle mesh into a fixed-size, centered,
// unit-scaled point cloud. Sampling is stochastic but fully determined
// by the seed, so identical inputs produce identical clouds.
package sample

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/chazu/calipers/pkg/mesh"
)

// Point is a single sampled position. Clouds use float32 precision;
// intermediate math runs in float64.
type Point [3]float32

// Cloud is a fixed-length ordered point set. After Sample returns, the
// centroid sits at the origin and the largest point norm is 1.0 unless
// the input was degenerate (all points coincident).
type Cloud []Point

// Centroid returns the mean position of the cloud.
func (c Cloud) Centroid() [3]float64 {
	var sum [3]float64
	for _, p := range c {
		sum[0] += float64(p[0])
		sum[1] += float64(p[1])
		sum[2] += float64(p[2])
	}
	n := float64(len(c))
	if n == 0 {
		return sum
	}
	return [3]float64{sum[0] / n, sum[1] / n, sum[2] / n}
}

// MaxNorm returns the largest point-to-origin distance in the cloud.
func (c Cloud) MaxNorm() float64 {
	max := 0.0
	for _, p := range c {
		n := math.Sqrt(float64(p[0])*float64(p[0]) + float64(p[1])*float64(p[1]) + float64(p[2])*float64(p[2]))
		if n > max {
			max = n
		}
	}
	return max
}

// SamplingError reports an infeasible sampling request.
type SamplingError struct {
	Reason string
}

func (e *SamplingError) Error() string {
	return "sampling: " + e.Reason
}

// Sample draws count points from the mesh and normalizes them.
//
// Watertight meshes are sampled on the surface with density uniform over
// area: a triangle is picked with probability proportional to its area,
// then a point is placed uniformly inside it via barycentric coordinates.
// Non-watertight meshes are sampled from the vertex set, without
// replacement when enough vertices exist, with replacement otherwise.
//
// Normalization always runs: the centroid is subtracted from every point
// and the cloud is divided by its maximum norm. A zero norm (all points
// coincident) skips the division; the cloud is degenerate but sampling
// itself does not fail.
func Sample(m *mesh.Mesh, count int, seed int64) (Cloud, error) {
	if count <= 0 {
		return nil, &SamplingError{Reason: fmt.Sprintf("target count %d, must be positive", count)}
	}
	if m == nil || len(m.Vertices) == 0 {
		return nil, &SamplingError{Reason: "mesh has no vertices to sample"}
	}

	rng := rand.New(rand.NewSource(seed))

	var pts []mesh.Vec3
	if m.Watertight() {
		pts = sampleSurface(m, count, rng)
	}
	if pts == nil {
		pts = sampleVertices(m, count, rng)
	}

	normalize(pts)

	cloud := make(Cloud, len(pts))
	for i, p := range pts {
		cloud[i] = Point{float32(p.X), float32(p.Y), float32(p.Z)}
	}
	return cloud, nil
}

// sampleSurface draws count area-weighted points on the mesh surface.
// Returns nil when the total surface area is zero (all faces degenerate)
// so the caller can fall back to vertex sampling.
func sampleSurface(m *mesh.Mesh, count int, rng *rand.Rand) []mesh.Vec3 {
	// Cumulative area table for weighted triangle selection.
	cum := make([]float64, len(m.Faces))
	total := 0.0
	for i := range m.Faces {
		total += m.FaceArea(i)
		cum[i] = total
	}
	if total == 0 {
		return nil
	}

	pts := make([]mesh.Vec3, count)
	for i := range pts {
		fi := sort.SearchFloat64s(cum, rng.Float64()*total)
		if fi == len(cum) {
			fi = len(cum) - 1
		}
		f := m.Faces[fi]
		a := m.Vertices[f[0]]
		b := m.Vertices[f[1]]
		c := m.Vertices[f[2]]

		// Uniform barycentric point: fold (u,v) back into the triangle
		// when it lands in the far half of the parallelogram.
		u := rng.Float64()
		v := rng.Float64()
		if u+v > 1 {
			u = 1 - u
			v = 1 - v
		}
		pts[i] = a.Add(b.Sub(a).Scale(u)).Add(c.Sub(a).Scale(v))
	}
	return pts
}

// sampleVertices draws count points from the vertex set: a random subset
// when the mesh has at least count vertices, independent draws with
// replacement otherwise.
func sampleVertices(m *mesh.Mesh, count int, rng *rand.Rand) []mesh.Vec3 {
	pts := make([]mesh.Vec3, count)
	if len(m.Vertices) >= count {
		for i, vi := range rng.Perm(len(m.Vertices))[:count] {
			pts[i] = m.Vertices[vi]
		}
		return pts
	}
	for i := range pts {
		pts[i] = m.Vertices[rng.Intn(len(m.Vertices))]
	}
	return pts
}

// normalize centers the points on their centroid and scales the cloud to
// the unit sphere. Degenerate clouds (max norm zero) stay centered only.
func normalize(pts []mesh.Vec3) {
	var centroid mesh.Vec3
	for _, p := range pts {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Scale(1 / float64(len(pts)))

	scale := 0.0
	for i := range pts {
		pts[i] = pts[i].Sub(centroid)
		if n := pts[i].Norm(); n > scale {
			scale = n
		}
	}
	if scale == 0 {
		return
	}
	inv := 1 / scale
	for i := range pts {
		pts[i] = pts[i].Scale(inv)
	}
}
