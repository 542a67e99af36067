package dataset

import (
	"fmt"

	"github.com/goccy/go-json"

	apperrors "stflow/internal/errors"
	"stflow/internal/grid"
)

// Mode selects what Len and Get return
type Mode int

const (
	// ModePeriodical serves the closeness/period/trend windows with mask, POI and target
	ModePeriodical Mode = iota
	// ModeSequential serves flat history/prediction blocks of the full series
	ModeSequential
	// ModeLeadTime serves single frames paired with the frame lead steps later
	ModeLeadTime
)

var modeNames = map[Mode]string{
	ModePeriodical: "periodical",
	ModeSequential: "sequential",
	ModeLeadTime:   "lead_time",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the names produced by String
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sample is one item served by a view
type Sample interface {
	Mode() Mode
	// Fields returns the sample keyed by its wire names
	Fields() map[string]*grid.Tensor
}

// PeriodicalSample is one target with its three scale windows, calendar mask and POI grid
type PeriodicalSample struct {
	XCloseness *grid.Tensor `json:"x_closeness"`
	XPeriod    *grid.Tensor `json:"x_period"`
	XTrend     *grid.Tensor `json:"x_trend"`
	TData      *grid.Tensor `json:"t_data"`
	PData      *grid.Tensor `json:"p_data"`
	YData      *grid.Tensor `json:"y_data"`
}

// Mode implements Sample
func (PeriodicalSample) Mode() Mode { return ModePeriodical }

// Fields implements Sample
func (s PeriodicalSample) Fields() map[string]*grid.Tensor {
	return map[string]*grid.Tensor{
		"x_closeness": s.XCloseness,
		"x_period":    s.XPeriod,
		"x_trend":     s.XTrend,
		"t_data":      s.TData,
		"p_data":      s.PData,
		"y_data":      s.YData,
	}
}

// SimpleSample is an input/output pair served by the sequential and lead-time modes
type SimpleSample struct {
	X *grid.Tensor `json:"x_data"`
	Y *grid.Tensor `json:"y_data"`

	mode Mode
}

// Mode implements Sample
func (s SimpleSample) Mode() Mode { return s.mode }

// Fields implements Sample
func (s SimpleSample) Fields() map[string]*grid.Tensor {
	return map[string]*grid.Tensor{"x_data": s.X, "y_data": s.Y}
}

// MarshalJSON keeps the mode out of the payload
func (s SimpleSample) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X *grid.Tensor `json:"x_data"`
		Y *grid.Tensor `json:"y_data"`
	}{s.X, s.Y})
}

// View is an immutable indexing of the dataset in one mode. Views are safe
// for concurrent use.
type View interface {
	Mode() Mode
	Len() int
	Get(index int) (Sample, error)
}

func checkIndex(index, length int) error {
	if index < 0 || index >= length {
		return apperrors.NewIndexOutOfRangeError(index, length)
	}
	return nil
}

type periodicalView struct {
	f *Features
}

// NewPeriodicalView serves the aligned feature arrays
func NewPeriodicalView(f *Features) View {
	return &periodicalView{f: f}
}

func (v *periodicalView) Mode() Mode { return ModePeriodical }

func (v *periodicalView) Len() int { return v.f.Len() }

func (v *periodicalView) Get(index int) (Sample, error) {
	if err := checkIndex(index, v.Len()); err != nil {
		return nil, err
	}
	return PeriodicalSample{
		XCloseness: v.f.XCloseness.Index(index),
		XPeriod:    v.f.XPeriod.Index(index),
		XTrend:     v.f.XTrend.Index(index),
		TData:      v.f.TData.Index(index),
		PData:      v.f.PData.Index(index),
		YData:      v.f.YData.Index(index),
	}, nil
}

type sequentialView struct {
	history *grid.Tensor
	predict *grid.Tensor
}

// NewSequentialView splits full into history blocks of h frames followed by
// prediction blocks of p frames, one pair for every end in [h+p, T):
// history = full[end-p-h : end-p], predict = full[end-p : end].
func NewSequentialView(full *grid.Tensor, h, p int) (View, error) {
	if h < 1 || p < 1 {
		return nil, apperrors.NewInvalidConfigurationError("history_length and prediction_length must be >= 1, got %d and %d", h, p)
	}

	steps := full.Len()
	frameShape := full.Shape()[1:]
	n := max(0, steps-(h+p))

	history := grid.New(append([]int{n, h}, frameShape...)...)
	predict := grid.New(append([]int{n, p}, frameShape...)...)

	for j := 0; j < n; j++ {
		end := h + p + j
		copy(history.Index(j).Data(), full.Slice(end-p-h, end-p).Data())
		copy(predict.Index(j).Data(), full.Slice(end-p, end).Data())
	}

	return &sequentialView{history: history, predict: predict}, nil
}

func (v *sequentialView) Mode() Mode { return ModeSequential }

func (v *sequentialView) Len() int { return v.history.Len() }

func (v *sequentialView) Get(index int) (Sample, error) {
	if err := checkIndex(index, v.Len()); err != nil {
		return nil, err
	}
	return SimpleSample{X: v.history.Index(index), Y: v.predict.Index(index), mode: ModeSequential}, nil
}

type leadTimeView struct {
	full *grid.Tensor
	lead int
}

// NewLeadTimeView pairs frame i of full with frame i+lead
func NewLeadTimeView(full *grid.Tensor, lead int) (View, error) {
	if lead < 1 {
		return nil, apperrors.NewInvalidConfigurationError("lead_time must be >= 1, got %d", lead)
	}
	return &leadTimeView{full: full, lead: lead}, nil
}

func (v *leadTimeView) Mode() Mode { return ModeLeadTime }

func (v *leadTimeView) Len() int { return max(0, v.full.Len()-v.lead) }

func (v *leadTimeView) Get(index int) (Sample, error) {
	if err := checkIndex(index, v.Len()); err != nil {
		return nil, err
	}
	return SimpleSample{X: v.full.Index(index), Y: v.full.Index(index + v.lead), mode: ModeLeadTime}, nil
}
