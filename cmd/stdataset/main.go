// Command stdataset builds a dataset, optionally switches its sample mode
// and prints a JSON summary, optionally with the field shapes of one sample.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"stflow/internal/config"
	"stflow/internal/dataset"
	"stflow/internal/infrastructure"
)

// output is what stdataset prints
type output struct {
	Summary dataset.Summary `json:"summary"`
	Sample  *sampleShapes   `json:"sample,omitempty"`
}

type sampleShapes struct {
	Index  int              `json:"index"`
	Mode   string           `json:"mode"`
	Fields []string         `json:"fields"`
	Shapes map[string][]int `json:"shapes"`
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		slog.Error("stdataset failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("stdataset", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file (defaults to $STFLOW_CONFIG or config.yaml)")
	root := fs.String("root", "", "dataset directory, overrides dataset.root")
	download := fs.Bool("download", false, "fetch the arrays before loading")
	mode := fs.String("mode", "", "periodical | sequential | lead_time, overrides dataset.mode")
	history := fs.Int("history", 0, "history length of the sequential mode")
	prediction := fs.Int("prediction", 0, "prediction length of the sequential mode")
	lead := fs.Int("lead", 0, "lead time of the lead_time mode")
	sample := fs.Int("sample", -1, "index of a sample whose shapes are printed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *root != "" {
		cfg.Dataset.Root = *root
	}
	if *download {
		cfg.Dataset.Download = true
	}
	if *mode != "" {
		cfg.Dataset.Mode = *mode
	}
	if *history > 0 {
		cfg.Dataset.HistoryLength = *history
	}
	if *prediction > 0 {
		cfg.Dataset.PredictionLength = *prediction
	}
	if *lead > 0 {
		cfg.Dataset.LeadTime = *lead
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ds, err := dataset.Open(ctx, cfg.Dataset.Options(), dataset.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := cfg.Dataset.ApplyMode(ds); err != nil {
		return err
	}

	out := output{Summary: ds.Describe()}
	if *sample >= 0 {
		s, err := ds.Get(*sample)
		if err != nil {
			return err
		}
		out.Sample = describeSample(*sample, s)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func describeSample(index int, s dataset.Sample) *sampleShapes {
	fields := s.Fields()
	shapes := &sampleShapes{
		Index:  index,
		Mode:   s.Mode().String(),
		Fields: make([]string, 0, len(fields)),
		Shapes: make(map[string][]int, len(fields)),
	}
	for name, t := range fields {
		shapes.Fields = append(shapes.Fields, name)
		shapes.Shapes[name] = t.Shape()
	}
	sort.Strings(shapes.Fields)
	return shapes
}
