package dataset

// Source files and the DeepSTN BikeNYC URLs they are fetched from
const (
	FlowFile = "flow_data.npy"
	POIFile  = "poi_data.npy"

	FlowURL = "https://raw.githubusercontent.com/FIBLAB/DeepSTN/master/BikeNYC/DATA/dataBikeNYC/flow_data.npy"
	POIURL  = "https://raw.githubusercontent.com/FIBLAB/DeepSTN/master/BikeNYC/DATA/dataBikeNYC/poi_data.npy"
)

// Window defaults for hourly data: three recent hours, four previous days
// and four previous weeks
const (
	DefaultLenCloseness = 3
	DefaultLenPeriod    = 4
	DefaultLenTrend     = 4
	DefaultTCloseness   = 1
	DefaultTPeriod      = 24
	DefaultTTrend       = 24 * 7

	// DefaultLeadTime is the horizon used by MergeClosenessPeriodTrend callers that have no preference
	DefaultLeadTime = 2 * 24
)

// Options are the construction parameters of a dataset
type Options struct {
	Root         string `yaml:"root" json:"root"`
	Download     bool   `yaml:"download" json:"download"`
	LenCloseness int    `yaml:"len_closeness" json:"len_closeness"`
	LenPeriod    int    `yaml:"len_period" json:"len_period"`
	LenTrend     int    `yaml:"len_trend" json:"len_trend"`
	TCloseness   int    `yaml:"t_closeness" json:"t_closeness"`
	TPeriod      int    `yaml:"t_period" json:"t_period"`
	TTrend       int    `yaml:"t_trend" json:"t_trend"`
	Normalize    bool   `yaml:"normalize" json:"normalize"`
}

// DefaultOptions returns the BikeNYC defaults rooted at root
func DefaultOptions(root string) Options {
	return Options{
		Root:         root,
		LenCloseness: DefaultLenCloseness,
		LenPeriod:    DefaultLenPeriod,
		LenTrend:     DefaultLenTrend,
		TCloseness:   DefaultTCloseness,
		TPeriod:      DefaultTPeriod,
		TTrend:       DefaultTTrend,
		Normalize:    true,
	}
}

// Windows extracts the window configuration
func (o Options) Windows() Windows {
	return Windows{
		Closeness: WindowSpec{Length: o.LenCloseness, Step: o.TCloseness},
		Period:    WindowSpec{Length: o.LenPeriod, Step: o.TPeriod},
		Trend:     WindowSpec{Length: o.LenTrend, Step: o.TTrend},
	}
}
