package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/config"
	"github.com/pthm-cable/forcefield/geom"
)

func TestGridPointsInsideSet(t *testing.T) {
	set := geom.NewSet(geom.NewSphere(r3.Vec{}, 1))
	bounds, _ := set.Bounds()

	positions, err := gridPoints(set, bounds, 0.5)
	if err != nil {
		t.Fatalf("gridPoints() error = %v", err)
	}
	if len(positions) == 0 {
		t.Fatal("gridPoints() returned no points")
	}
	for _, p := range positions {
		if !set.Contains(p) {
			t.Errorf("point %v is outside the set", p)
		}
	}
}

func TestGridPointsRejectsBadSpacing(t *testing.T) {
	set := geom.NewSet(geom.NewSphere(r3.Vec{}, 1))
	bounds, _ := set.Bounds()

	for _, spacing := range []float64{0, -1} {
		if _, err := gridPoints(set, bounds, spacing); err == nil {
			t.Errorf("gridPoints(spacing=%v) succeeded", spacing)
		}
	}
	if _, err := gridPoints(set, bounds, 1e-4); err == nil {
		t.Error("gridPoints() accepted a grid above the point limit")
	}
}

func TestFindField(t *testing.T) {
	cfg := &config.Config{Fields: []config.FieldConfig{{Name: "a"}, {Name: "b"}}}

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "a", false},
		{"b", "b", false},
		{"missing", "", true},
	}
	for _, tt := range tests {
		fc, err := findField(cfg, tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("findField(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if fc.Name != tt.want {
			t.Errorf("findField(%q) = %q, want %q", tt.name, fc.Name, tt.want)
		}
	}

	if _, err := findField(&config.Config{}, ""); err == nil {
		t.Error("findField() on empty config succeeded")
	}
}

func TestRunWritesCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "planet.csv")
	if err := run("", "planet", 5, out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "x,y,z,fx,fy,fz,magnitude" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) < 2 {
		t.Error("no sample rows written")
	}
}
