package mesh

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Loader acquires a mesh from a file path. The evaluation engine never
// touches the filesystem itself; loading happens in a collaborator
// before the engine is invoked.
type Loader interface {
	Load(path string) (*Mesh, error)
}

// Converter turns a CAD exchange format (STEP, 3MF, ...) into a triangle
// mesh. Implementations wrap external tessellators; none ship with the
// engine.
type Converter interface {
	Convert(path string) (*Mesh, error)
}

// Repairer is an optional pre-processing hook that makes a mesh
// watertight (hole filling, non-manifold cleanup). The engine applies it
// before validation when configured, and otherwise never repairs.
type Repairer interface {
	Repair(m *Mesh) (*Mesh, error)
}

// FileLoader loads the triangulated formats the engine understands
// natively. Exchange formats can be routed through Convert when a
// Converter is configured.
type FileLoader struct {
	Converter Converter
}

var _ Loader = (*FileLoader)(nil)

// Load reads a mesh from path, dispatching on the file extension.
func (l *FileLoader) Load(path string) (*Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".stl":
		return loadWith(path, ReadSTL)
	case ".obj":
		return loadWith(path, ReadOBJ)
	case ".step", ".stp":
		if l.Converter == nil {
			return nil, fmt.Errorf("mesh: %s: no converter configured for STEP input", path)
		}
		return l.Converter.Convert(path)
	default:
		return nil, fmt.Errorf("mesh: %s: unsupported format %q", path, ext)
	}
}

// LoadFile loads a mesh with the default loader (no converter).
func LoadFile(path string) (*Mesh, error) {
	return (&FileLoader{}).Load(path)
}

func loadWith(path string, read func(io.Reader) (*Mesh, error)) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: opening %s: %w", path, err)
	}
	defer f.Close()
	m, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("mesh: loading %s: %w", path, err)
	}
	return m, nil
}
