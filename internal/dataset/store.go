package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	apperrors "stflow/internal/errors"
	"stflow/internal/files"
	"stflow/internal/grid"
	"stflow/internal/validation"
)

// MinMaxScaler maps the range [Min, Max] onto [-1, 1]
type MinMaxScaler struct {
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// Diff returns max-min, the constant that rescales normalized errors to physical units
func (s MinMaxScaler) Diff() float64 {
	return s.Max - s.Min
}

// Normalize maps x into [-1, 1]
func (s MinMaxScaler) Normalize(x float64) float64 {
	return (2*x - (s.Max + s.Min)) / s.Diff()
}

// Denormalize inverts Normalize
func (s MinMaxScaler) Denormalize(y float64) float64 {
	return (y*s.Diff() + (s.Max + s.Min)) / 2
}

// DenormalizeTensor returns a copy of t mapped back to physical units
func (s MinMaxScaler) DenormalizeTensor(t *grid.Tensor) *grid.Tensor {
	out := t.Clone()
	data := out.Data()
	floats.Scale(s.Diff()/2, data)
	floats.AddConst((s.Max+s.Min)/2, data)
	return out
}

func (s MinMaxScaler) normalizeInPlace(data []float64) {
	d := s.Diff()
	floats.Scale(2/d, data)
	floats.AddConst(-(s.Max+s.Min)/d, data)
}

// Store is the raw array store: the full flow series, possibly normalized,
// and the static POI grid
type Store struct {
	// Flow has shape (T, C, H, W)
	Flow *grid.Tensor
	// POI has shape (C_poi, H, W) and is kept unnormalized
	POI        *grid.Tensor
	Scaler     MinMaxScaler
	Normalized bool
}

// NewStore validates the arrays, copies the flow series and fits the scaler
// over all of it. With normalize set, every element x becomes
// (2x - (max+min)) / (max-min).
func NewStore(flow, poi *grid.Tensor, normalize bool) (*Store, error) {
	if flow == nil || poi == nil {
		return nil, apperrors.NewMalformedInputError("flow and poi arrays are required", nil)
	}
	if flow.Rank() != 4 {
		return nil, apperrors.NewMalformedInputError(fmt.Sprintf("%s must have shape (T, C, H, W), got %v", FlowFile, flow.Shape()), nil)
	}
	if poi.Rank() != 3 {
		return nil, apperrors.NewMalformedInputError(fmt.Sprintf("%s must have shape (C, H, W), got %v", POIFile, poi.Shape()), nil)
	}
	if flow.Dim(2) != poi.Dim(1) || flow.Dim(3) != poi.Dim(2) {
		return nil, apperrors.NewMalformedInputError(
			fmt.Sprintf("grid size mismatch: flow %dx%d, poi %dx%d", flow.Dim(2), flow.Dim(3), poi.Dim(1), poi.Dim(2)), nil)
	}
	if flow.Size() == 0 {
		return nil, apperrors.NewMalformedInputError(fmt.Sprintf("%s is empty", FlowFile), nil)
	}

	full := flow.Clone()
	scaler := MinMaxScaler{Max: full.Max(), Min: full.Min()}

	if normalize {
		if scaler.Diff() == 0 {
			return nil, apperrors.NewMalformedInputError(fmt.Sprintf("%s is constant (%g); cannot normalize", FlowFile, scaler.Max), nil)
		}
		scaler.normalizeInPlace(full.Data())
	}

	return &Store{
		Flow:       full,
		POI:        poi,
		Scaler:     scaler,
		Normalized: normalize,
	}, nil
}

// Steps returns the number of timesteps in the series
func (s *Store) Steps() int {
	return s.Flow.Len()
}

// LoadStore finds the directory under root holding both array files, reads
// them concurrently and builds the store
func LoadStore(ctx context.Context, root string, normalize bool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	dir, err := files.NewDiscovery("", logger).FindDirContaining(root, FlowFile, POIFile)
	if err != nil {
		return nil, err
	}

	validator := validation.NewFileValidator(logger)
	var flow, poi *grid.Tensor
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := loadArray(gctx, validator, filepath.Join(dir, FlowFile))
		flow = t
		return err
	})
	g.Go(func() error {
		t, err := loadArray(gctx, validator, filepath.Join(dir, POIFile))
		poi = t
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	store, err := NewStore(flow, poi, normalize)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "arrays loaded",
		slog.String("dir", dir),
		slog.Any("flow_shape", flow.Shape()),
		slog.Any("poi_shape", poi.Shape()),
		slog.Float64("max", store.Scaler.Max),
		slog.Float64("min", store.Scaler.Min),
		slog.Bool("normalized", normalize),
		slog.Duration("duration", time.Since(start)),
	)
	return store, nil
}

func loadArray(ctx context.Context, validator *validation.FileValidator, path string) (*grid.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validator.ValidateArrayFile(path); err != nil {
		return nil, apperrors.NewMalformedInputError(fmt.Sprintf("load %s", filepath.Base(path)), err)
	}
	t, err := grid.LoadNPY(path)
	if err != nil {
		return nil, apperrors.NewMalformedInputError(fmt.Sprintf("load %s", filepath.Base(path)), err)
	}
	return t, nil
}
