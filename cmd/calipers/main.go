// calipers grades a submitted 3D model against a reference model by
// sampling both meshes into normalized point clouds, measuring
// bidirectional nearest-neighbor deviation and mapping the result onto a
// grading scale.
//
// Usage:
//
//	calipers eval -ref teacher.stl -sub student.stl [-points N] [-seed N]
//	              [-policy policy.yaml] [-heatmap out.json]
//	calipers gen -shape box -size 20,10,5 -o reference.stl [-cells N]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/calipers/internal/logger"
	"github.com/chazu/calipers/pkg/evaluate"
	"github.com/chazu/calipers/pkg/grade"
	"github.com/chazu/calipers/pkg/heatmap"
	"github.com/chazu/calipers/pkg/mesh"
	"github.com/chazu/calipers/pkg/primitive"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "eval":
		err = runEval(os.Args[2:])
	case "gen":
		err = runGen(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "calipers:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  calipers eval -ref FILE -sub FILE [options]   grade a submission against a reference
  calipers gen -shape NAME [options]            write a primitive reference mesh`)
}

func runEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	refPath := fs.String("ref", "", "reference (teacher) mesh file")
	subPath := fs.String("sub", "", "submission (student) mesh file")
	points := fs.Int("points", evaluate.DefaultTargetCount, "point cloud size per mesh")
	seed := fs.Int64("seed", time.Now().UnixNano(), "sampling seed (fixed seed = reproducible result)")
	policyPath := fs.String("policy", "", "optional grading policy YAML")
	heatmapPath := fs.String("heatmap", "", "optional path for a deviation heatmap figure (JSON)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	logFile := fs.String("log-file", "", "optional rotated log file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *refPath == "" || *subPath == "" {
		return errors.New("eval: both -ref and -sub are required")
	}

	log := logger.New(logger.Options{Level: *logLevel, File: *logFile})
	defer log.Sync()

	opts := evaluate.Options{TargetCount: *points, Seed: *seed}
	if *policyPath != "" {
		p, err := grade.LoadPolicy(*policyPath)
		if err != nil {
			return err
		}
		opts.Policy = p
		log.Debugw("loaded grading policy", "path", *policyPath)
	}

	ref, err := mesh.LoadFile(*refPath)
	if err != nil {
		return err
	}
	log.Infow("loaded reference mesh", "path", *refPath,
		"vertices", ref.VertexCount(), "faces", ref.FaceCount(), "watertight", ref.Watertight())

	sub, err := mesh.LoadFile(*subPath)
	if err != nil {
		return err
	}
	log.Infow("loaded submission mesh", "path", *subPath,
		"vertices", sub.VertexCount(), "faces", sub.FaceCount(), "watertight", sub.Watertight())

	start := time.Now()
	outcome, err := evaluate.Run(ref, sub, opts)
	if err != nil {
		var stageErr *evaluate.Error
		if errors.As(err, &stageErr) {
			log.Errorw("evaluation failed", "stage", stageErr.Stage.String(), "input", stageErr.Input)
		}
		return err
	}
	log.Infow("evaluation complete",
		"grade", string(outcome.Grade.Letter),
		"score", outcome.Grade.Score,
		"mean_deviation", outcome.Report.Mean,
		"hausdorff", outcome.Report.Hausdorff,
		"elapsed", time.Since(start))

	fmt.Print(outcome.Feedback)

	if *heatmapPath != "" {
		title := fmt.Sprintf("Geometric Accuracy - Grade: %s", outcome.Grade.Letter)
		fig, err := heatmap.Build(outcome.SubmissionCloud, outcome.Report.SubToRef, title)
		if err != nil {
			return err
		}
		f, err := os.Create(*heatmapPath)
		if err != nil {
			return fmt.Errorf("creating heatmap file: %w", err)
		}
		defer f.Close()
		if err := fig.WriteJSON(f); err != nil {
			return fmt.Errorf("writing heatmap: %w", err)
		}
		log.Infow("wrote heatmap", "path", *heatmapPath)
	}
	return nil
}

func runGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	shape := fs.String("shape", "box", "primitive shape: box, cylinder, sphere")
	size := fs.String("size", "10,10,10", "dimensions: box X,Y,Z; cylinder HEIGHT,RADIUS; sphere RADIUS")
	out := fs.String("o", "reference.stl", "output STL path")
	cells := fs.Int("cells", primitive.DefaultCells, "marching cubes resolution")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dims, err := parseDims(*size)
	if err != nil {
		return err
	}

	var m *mesh.Mesh
	switch *shape {
	case "box":
		if len(dims) != 3 {
			return errors.New("gen: box needs -size X,Y,Z")
		}
		m, err = primitive.Box(dims[0], dims[1], dims[2], *cells)
	case "cylinder":
		if len(dims) != 2 {
			return errors.New("gen: cylinder needs -size HEIGHT,RADIUS")
		}
		m, err = primitive.Cylinder(dims[0], dims[1], *cells)
	case "sphere":
		if len(dims) != 1 {
			return errors.New("gen: sphere needs -size RADIUS")
		}
		m, err = primitive.Sphere(dims[0], *cells)
	default:
		return fmt.Errorf("gen: unknown shape %q", *shape)
	}
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	defer f.Close()
	if err := mesh.WriteSTL(f, m); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s: %d vertices, %d faces\n", *out, m.VertexCount(), m.FaceCount())
	return nil
}

func parseDims(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	dims := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("gen: parsing -size %q: %w", s, err)
		}
		dims = append(dims, v)
	}
	return dims, nil
}
