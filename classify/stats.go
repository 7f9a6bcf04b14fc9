package classify

import (
	"strings"

	"github.com/montanaflynn/stats"
)

// Stat is a summary statistic over a series.
type Stat int

// The supported statistics.
const (
	Max Stat = iota
	Min
	Mean
	Median
	Sum
	Count
)

var statNames = map[string]Stat{
	"maximum": Max, "最大值": Max,
	"minimum": Min, "最小值": Min,
	"average": Mean, "平均值": Mean,
	"median": Median, "中位数": Median,
	"sum": Sum, "求和": Sum,
	"times": Count, "计数": Count,
}

// ParseStat maps the portal statistic names.
func ParseStat(name string) (Stat, bool) {
	s, ok := statNames[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Statistic computes the statistic for the values.
// An empty series is always 0.
func Statistic(values []float64, s Stat) float64 {
	if len(values) == 0 {
		return 0
	}

	var (
		v   float64
		err error
	)
	switch s {
	case Max:
		v, err = stats.Max(values)
	case Min:
		v, err = stats.Min(values)
	case Mean:
		v, err = stats.Mean(values)
	case Median:
		v, err = stats.Median(values)
	case Sum:
		v, err = stats.Sum(values)
	case Count:
		return float64(len(values))
	}

	if err != nil {
		return 0
	}

	return v
}
