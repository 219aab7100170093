// Package distance computes bidirectional nearest-neighbor distances
// between two point clouds and aggregates the summary statistics the
// grader consumes. The computation is deterministic and side-effect
// free; both clouds are treated as immutable.
package distance

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/chazu/calipers/pkg/sample"
)

// Report holds the per-point distance sequences and their aggregates.
// All aggregates except Hausdorff are computed over the reference to
// submission direction: for each point on the correct model, how far is
// the nearest point on the submission. Immutable once returned.
type Report struct {
	RefToSub []float64
	SubToRef []float64

	Mean      float64
	Max       float64
	Std       float64
	Median    float64
	P95       float64
	P99       float64
	Hausdorff float64
}

// ComputationError reports that a nearest-neighbor query could not be
// performed, typically because a cloud is empty.
type ComputationError struct {
	Reason string
}

func (e *ComputationError) Error() string {
	return "distance: " + e.Reason
}

// bruteForceCutoff is the cloud size below which a quadratic scan beats
// kd-tree construction. The brute-force path does not scale and exists
// only for tiny clouds.
const bruteForceCutoff = 32

// Compare computes nearest-neighbor distances in both directions between
// the reference and submission clouds and aggregates them. Expected cost
// is O(N log N) per direction via a kd-tree.
func Compare(ref, sub sample.Cloud) (*Report, error) {
	if len(ref) == 0 {
		return nil, &ComputationError{Reason: "reference cloud is empty"}
	}
	if len(sub) == 0 {
		return nil, &ComputationError{Reason: "submission cloud is empty"}
	}

	refToSub := nearestDistances(ref, sub)
	subToRef := nearestDistances(sub, ref)

	r := &Report{
		RefToSub: refToSub,
		SubToRef: subToRef,
		Mean:     mean(refToSub),
		Max:      maxOf(refToSub),
		Std:      stddev(refToSub),
	}
	sorted := sortedCopy(refToSub)
	r.Median = percentile(sorted, 50)
	r.P95 = percentile(sorted, 95)
	r.P99 = percentile(sorted, 99)
	r.Hausdorff = math.Max(r.Max, maxOf(subToRef))
	return r, nil
}

// nearestDistances returns, for every query point, the Euclidean
// distance to its nearest point in target.
func nearestDistances(queries, target sample.Cloud) []float64 {
	if len(target) < bruteForceCutoff {
		return bruteForceDistances(queries, target)
	}

	pts := make(kdtree.Points, len(target))
	for i, p := range target {
		pts[i] = kdtree.Point{float64(p[0]), float64(p[1]), float64(p[2])}
	}
	tree := kdtree.New(pts, false)

	out := make([]float64, len(queries))

	// Clouds are immutable here, so queries fan out across workers.
	// This is an optimization only; results are position-stable.
	workers := runtime.GOMAXPROCS(0)
	if workers > len(queries) {
		workers = len(queries)
	}
	var wg sync.WaitGroup
	chunk := (len(queries) + workers - 1) / workers
	for start := 0; start < len(queries); start += chunk {
		end := start + chunk
		if end > len(queries) {
			end = len(queries)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				q := kdtree.Point{float64(queries[i][0]), float64(queries[i][1]), float64(queries[i][2])}
				got, _ := tree.Nearest(q)
				out[i] = euclidean(q, got.(kdtree.Point))
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// bruteForceDistances is the O(N*M) fallback for tiny clouds.
func bruteForceDistances(queries, target sample.Cloud) []float64 {
	out := make([]float64, len(queries))
	for i, q := range queries {
		best := math.Inf(1)
		for _, t := range target {
			dx := float64(q[0]) - float64(t[0])
			dy := float64(q[1]) - float64(t[1])
			dz := float64(q[2]) - float64(t[2])
			if d := dx*dx + dy*dy + dz*dz; d < best {
				best = d
			}
		}
		out[i] = math.Sqrt(best)
	}
	return out
}

func euclidean(a, b kdtree.Point) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
