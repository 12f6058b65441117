// Command las-info inspects a LAS file: header summary, per-dimension
// statistics, optional JSON output, and an optional SQLite catalog update.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lasfile/internal/las"
	"github.com/banshee-data/lasfile/internal/lascatalog"
	"github.com/banshee-data/lasfile/internal/version"
)

// Config holds the inspection settings.
type Config struct {
	File    string
	Dims    string
	JSON    bool
	DBPath  string
	Quiet   bool
	Version bool
}

// DimStats summarizes one dimension over the whole file.
type DimStats struct {
	Name   string  `json:"name"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Report is the machine-readable output of one inspection.
type Report struct {
	Path            string     `json:"path"`
	Version         string     `json:"version"`
	PointFormat     uint8      `json:"point_format"`
	RecordLength    int        `json:"record_length"`
	PointCount      uint64     `json:"point_count"`
	VLRCount        int        `json:"vlr_count"`
	EVLRCount       int        `json:"evlr_count"`
	ProjectID       string     `json:"project_id"`
	ExtraDimensions []string   `json:"extra_dimensions,omitempty"`
	Min             [3]float64 `json:"min"`
	Max             [3]float64 `json:"max"`
	Stats           []DimStats `json:"stats,omitempty"`
}

func main() {
	var cfg Config
	flag.StringVar(&cfg.File, "file", "", "LAS file to inspect (required)")
	flag.StringVar(&cfg.Dims, "dims", "x,y,z,intensity", "comma-separated dimensions to summarize, empty to skip")
	flag.BoolVar(&cfg.JSON, "json", false, "emit the report as JSON")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite catalog to update with this file")
	flag.BoolVar(&cfg.Quiet, "quiet", false, "suppress engine diagnostics")
	flag.BoolVar(&cfg.Version, "version", false, "print version information and exit")
	flag.Parse()

	if cfg.Version {
		fmt.Printf("las-info %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if cfg.File == "" {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.Quiet {
		las.SetLogger(nil)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("las-info: %v", err)
	}
}

func run(cfg Config) error {
	f, err := las.Open(cfg.File)
	if err != nil {
		return err
	}
	defer f.Close()

	h := f.Header()
	report := Report{
		Path:         cfg.File,
		Version:      fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor),
		PointFormat:  h.PointFormatID,
		RecordLength: f.RecordLength(),
		PointCount:   f.PointCount(),
		VLRCount:     len(f.VLRs()),
		EVLRCount:    len(f.EVLRs()),
		ProjectID:    h.ProjectID.String(),
		Min:          h.Min,
		Max:          h.Max,
	}
	for _, e := range f.ExtraDimensions() {
		report.ExtraDimensions = append(report.ExtraDimensions, las.NormalizeDimensionName(e.Name))
	}

	if cfg.Dims != "" && f.PointCount() > 0 {
		for _, name := range strings.Split(cfg.Dims, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			values, err := f.GetDimension(name)
			if err != nil {
				return err
			}
			report.Stats = append(report.Stats, DimStats{
				Name:   name,
				Min:    floats.Min(values),
				Max:    floats.Max(values),
				Mean:   stat.Mean(values, nil),
				StdDev: stat.StdDev(values, nil),
			})
		}
	}

	if cfg.DBPath != "" {
		catalog, err := lascatalog.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer catalog.Close()
		if _, err := catalog.Scan(cfg.File); err != nil {
			return fmt.Errorf("updating catalog: %w", err)
		}
	}

	if cfg.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(report)
	return nil
}

func printReport(r Report) {
	fmt.Printf("%s\n", r.Path)
	fmt.Printf("  version       %s\n", r.Version)
	fmt.Printf("  point format  %d (%d-byte records)\n", r.PointFormat, r.RecordLength)
	fmt.Printf("  points        %d\n", r.PointCount)
	fmt.Printf("  VLRs / EVLRs  %d / %d\n", r.VLRCount, r.EVLRCount)
	fmt.Printf("  project id    %s\n", r.ProjectID)
	fmt.Printf("  bounds min    %.3f %.3f %.3f\n", r.Min[0], r.Min[1], r.Min[2])
	fmt.Printf("  bounds max    %.3f %.3f %.3f\n", r.Max[0], r.Max[1], r.Max[2])
	if len(r.ExtraDimensions) > 0 {
		fmt.Printf("  extra dims    %s\n", strings.Join(r.ExtraDimensions, ", "))
	}
	for _, s := range r.Stats {
		fmt.Printf("  %-14s min=%.3f max=%.3f mean=%.3f stddev=%.3f\n",
			s.Name, s.Min, s.Max, s.Mean, s.StdDev)
	}
}
