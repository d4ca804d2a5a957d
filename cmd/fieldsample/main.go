// Field sampling tool - evaluates one configured field on a regular grid
// inside its bounds and writes the forces as CSV.
//
// Usage: go run ./cmd/fieldsample -field updraft -out updraft.csv
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/config"
	"github.com/pthm-cable/forcefield/field"
	"github.com/pthm-cable/forcefield/geom"
	"github.com/pthm-cable/forcefield/sim"
)

// SampleRow is one grid point in the output.
type SampleRow struct {
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
	Z         float64 `csv:"z"`
	FX        float64 `csv:"fx"`
	FY        float64 `csv:"fy"`
	FZ        float64 `csv:"fz"`
	Magnitude float64 `csv:"magnitude"`
}

// maxGridPoints caps the grid before containment filtering.
const maxGridPoints = 4_000_000

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	fieldName := flag.String("field", "", "Field to sample (empty = first field)")
	spacing := flag.Float64("spacing", 0, "Grid spacing (0 = |bounds size| / sampling.divisions)")
	out := flag.String("out", "", "Output CSV path (empty = stdout)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := run(*configPath, *fieldName, *spacing, *out); err != nil {
		slog.Error("sampling failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, fieldName string, spacing float64, out string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fc, err := findField(cfg, fieldName)
	if err != nil {
		return err
	}
	def, err := sim.FieldDefinition(fc)
	if err != nil {
		return err
	}
	f := field.New(def)

	set, err := f.Shapes()
	if err != nil {
		return err
	}
	bounds, ok := set.Bounds()
	if !ok {
		return fmt.Errorf("field %q: %w", fc.Name, field.ErrNoGeometry)
	}
	if spacing <= 0 {
		spacing = r3.Norm(bounds.Size()) / cfg.Sampling.Divisions
	}

	positions, err := gridPoints(set, bounds, spacing)
	if err != nil {
		return err
	}
	forces, err := field.Sample(f, positions)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" {
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer file.Close()
		w = file
	}
	if err := gocsv.Marshal(rows(positions, forces), w); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}

	slog.Info("sampled field",
		"field", fc.Name,
		"spacing", spacing,
		"points", len(positions),
	)
	return nil
}

func findField(cfg *config.Config, name string) (config.FieldConfig, error) {
	if len(cfg.Fields) == 0 {
		return config.FieldConfig{}, errors.New("config has no fields")
	}
	if name == "" {
		return cfg.Fields[0], nil
	}
	for _, fc := range cfg.Fields {
		if fc.Name == name {
			return fc, nil
		}
	}
	return config.FieldConfig{}, fmt.Errorf("no field named %q", name)
}

// gridPoints lays a grid with the given spacing over bounds, starting at
// bounds.Min, and keeps the points inside set.
func gridPoints(set *geom.Set, bounds geom.AABB, spacing float64) ([]r3.Vec, error) {
	if spacing <= 0 || math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return nil, fmt.Errorf("invalid spacing %v", spacing)
	}
	size := bounds.Size()
	nx := int(size.X/spacing) + 1
	ny := int(size.Y/spacing) + 1
	nz := int(size.Z/spacing) + 1
	if nx*ny*nz > maxGridPoints {
		return nil, fmt.Errorf("spacing %v gives %d grid points, limit is %d", spacing, nx*ny*nz, maxGridPoints)
	}

	var positions []r3.Vec
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				p := r3.Add(bounds.Min, r3.Vec{
					X: float64(i) * spacing,
					Y: float64(j) * spacing,
					Z: float64(k) * spacing,
				})
				if set.Contains(p) {
					positions = append(positions, p)
				}
			}
		}
	}
	return positions, nil
}

func rows(positions, forces []r3.Vec) []*SampleRow {
	out := make([]*SampleRow, len(positions))
	for i, p := range positions {
		f := forces[i]
		out[i] = &SampleRow{
			X: p.X, Y: p.Y, Z: p.Z,
			FX: f.X, FY: f.Y, FZ: f.Z,
			Magnitude: r3.Norm(f),
		}
	}
	return out
}
