package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadOBJ reads a Wavefront OBJ stream. Only vertex positions and faces
// are kept; texture coordinates, normals, groups and materials are
// skipped. Faces with more than three vertices are fan-triangulated.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj: line %d: vertex needs 3 coordinates", lineno)
			}
			var v Vec3
			var err error
			if v.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
				return nil, fmt.Errorf("obj: line %d: %w", lineno, err)
			}
			if v.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, fmt.Errorf("obj: line %d: %w", lineno, err)
			}
			if v.Z, err = strconv.ParseFloat(fields[3], 64); err != nil {
				return nil, fmt.Errorf("obj: line %d: %w", lineno, err)
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj: line %d: face needs at least 3 vertices", lineno)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := parseFaceRef(ref, len(m.Vertices))
				if err != nil {
					return nil, fmt.Errorf("obj: line %d: %w", lineno, err)
				}
				idx = append(idx, i)
			}
			for i := 1; i+1 < len(idx); i++ {
				m.Faces = append(m.Faces, [3]int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: scanning: %w", err)
	}
	return m, nil
}

// parseFaceRef resolves a face vertex reference ("7", "7/2", "7/2/3",
// "7//3" or a negative relative index) to a zero-based vertex index.
func parseFaceRef(ref string, nverts int) (int, error) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref = ref[:i]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("parsing face index %q: %w", ref, err)
	}
	switch {
	case n > 0:
		n-- // OBJ indices are 1-based
	case n < 0:
		n = nverts + n // relative to the vertices seen so far
	default:
		return 0, fmt.Errorf("face index 0 is not valid")
	}
	if n < 0 || n >= nverts {
		return 0, fmt.Errorf("face index %q out of range (%d vertices)", ref, nverts)
	}
	return n, nil
}
