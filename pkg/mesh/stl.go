package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// binary STL layout: 80-byte header, uint32 triangle count, then per
// triangle a float32 normal, three float32 vertices and a uint16
// attribute count.
const stlTriangleSize = 4*3*4 + 2

// ReadSTL reads an STL stream, detecting the ASCII variant by its
// "solid ... facet" preamble. Duplicate vertices are merged so that
// shared edges are represented once, which is what the watertightness
// check needs.
func ReadSTL(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("stl: reading header: %w", err)
	}
	if isASCIISTL(head) {
		return readASCIISTL(br)
	}
	return readBinarySTL(br)
}

// isASCIISTL sniffs the ASCII format. Binary files are allowed to begin
// with "solid" too, so require a "facet" keyword in the preamble.
func isASCIISTL(head []byte) bool {
	s := strings.TrimSpace(string(head))
	return strings.HasPrefix(s, "solid") && strings.Contains(s, "facet")
}

func readBinarySTL(r io.Reader) (*Mesh, error) {
	var header struct {
		Comment [80]byte
		NumTris uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("stl: reading binary header: %w", err)
	}

	m := &Mesh{}
	vertIndex := make(map[[3]float32]int)
	buf := make([]byte, stlTriangleSize)

	for i := 0; i < int(header.NumTris); i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("stl: reading triangle %d: %w", i, err)
		}
		var face [3]int
		for v := 0; v < 3; v++ {
			var vert [3]float32
			for c := 0; c < 3; c++ {
				// The first 12 bytes are the facet normal, skipped:
				// normals are recomputable from the vertices.
				off := 12 + 12*v + 4*c
				vert[c] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			}
			face[v] = internVertex(m, vertIndex, vert)
		}
		m.Faces = append(m.Faces, face)
	}
	return m, nil
}

func readASCIISTL(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	vertIndex := make(map[[3]float32]int)

	var face [3]int
	nvert := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "vertex" {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("stl: malformed vertex line %q", sc.Text())
		}
		var vert [3]float32
		for c := 0; c < 3; c++ {
			f, err := strconv.ParseFloat(fields[c+1], 32)
			if err != nil {
				return nil, fmt.Errorf("stl: parsing vertex coordinate %q: %w", fields[c+1], err)
			}
			vert[c] = float32(f)
		}
		face[nvert] = internVertex(m, vertIndex, vert)
		nvert++
		if nvert == 3 {
			m.Faces = append(m.Faces, face)
			nvert = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("stl: scanning: %w", err)
	}
	if nvert != 0 {
		return nil, fmt.Errorf("stl: facet with %d vertices, want 3", nvert)
	}
	return m, nil
}

func internVertex(m *Mesh, index map[[3]float32]int, vert [3]float32) int {
	if i, ok := index[vert]; ok {
		return i
	}
	i := len(m.Vertices)
	index[vert] = i
	m.Vertices = append(m.Vertices, Vec3{float64(vert[0]), float64(vert[1]), float64(vert[2])})
	return i
}

// WriteSTL writes the mesh as binary STL. Face normals are computed from
// the winding order.
func WriteSTL(w io.Writer, m *Mesh) error {
	var header [80]byte
	copy(header[:], "calipers")
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("stl: writing header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Faces))); err != nil {
		return fmt.Errorf("stl: writing triangle count: %w", err)
	}

	buf := make([]byte, stlTriangleSize)
	for i, f := range m.Faces {
		a := m.Vertices[f[0]]
		b := m.Vertices[f[1]]
		c := m.Vertices[f[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Norm(); l > 0 {
			n = n.Scale(1 / l)
		}
		putVec(buf[0:], n)
		putVec(buf[12:], a)
		putVec(buf[24:], b)
		putVec(buf[36:], c)
		buf[48], buf[49] = 0, 0
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("stl: writing triangle %d: %w", i, err)
		}
	}
	return nil
}

func putVec(buf []byte, v Vec3) {
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(v.Z)))
}
