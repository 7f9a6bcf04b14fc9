// Package classify buckets numeric series into classes for range themes.
// All functions are stateless, the series is passed on every call.
package classify

import (
	"math"
	"sort"
	"strings"

	"github.com/paulmach/webmap/util"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned when the values can not be classified using
// the method, eg. negative values for the square root method.
// Callers should not render the range theme.
var ErrUnsupported = errors.New("classify: unsupported values for method")

// Epsilon is added to every upper boundary so the real maximum value
// ends up inside the last class and not on its edge.
const Epsilon = 0.1

// MaxCount is the largest supported class count.
const MaxCount = 256

// Method is a segmentation method.
type Method int

// The supported methods.
const (
	EqualInterval Method = iota
	NaturalBreaks
	SquareRoot
	Logarithmic
)

var methodNames = map[string]Method{
	"offset":              EqualInterval,
	"offset segment":      EqualInterval,
	"equal interval":      EqualInterval,
	"等距分段法":               EqualInterval,
	"natural breaks":      NaturalBreaks,
	"jenks":               NaturalBreaks,
	"自然断裂法":               NaturalBreaks,
	"square":              SquareRoot,
	"square root segment": SquareRoot,
	"square root":         SquareRoot,
	"平方根分段法":              SquareRoot,
	"logarithm":           Logarithmic,
	"logarithm segment":   Logarithmic,
	"logarithmic":         Logarithmic,
	"对数分段法":               Logarithmic,
}

// ParseMethod maps the portal names of the segmentation methods.
func ParseMethod(name string) (Method, bool) {
	m, ok := methodNames[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

func (m Method) String() string {
	switch m {
	case EqualInterval:
		return "equal interval"
	case NaturalBreaks:
		return "natural breaks"
	case SquareRoot:
		return "square root"
	case Logarithmic:
		return "logarithmic"
	}

	return "unknown"
}

// Breaks are the ordered class boundaries, one more than the number of classes.
type Breaks []float64

// Classes returns the number of classes.
func (b Breaks) Classes() int {
	if len(b) < 2 {
		return 0
	}

	return len(b) - 1
}

// Class returns the index of the class the value falls into.
// The first class includes both ends, the others exclude the start.
func (b Breaks) Class(v float64) (int, bool) {
	for i := 0; i < b.Classes(); i++ {
		if InClass(i, b[i], b[i+1], v) {
			return i, true
		}
	}

	return 0, false
}

// InClass checks if a value is inside the class at the index.
// The first class is [start, end], later ones are (start, end]
// so a boundary value is only ever assigned once.
func InClass(index int, start, end, v float64) bool {
	if index == 0 {
		return v >= start && v <= end
	}

	return v > start && v <= end
}

// Classify computes the class boundaries for the values. NaN and infinite
// values are ignored. An empty series returns no breaks and no error.
func Classify(values []float64, method Method, count int) (Breaks, error) {
	values = finite(values)
	if len(values) == 0 {
		return nil, nil
	}

	if count < 1 {
		return nil, errors.Errorf("classify: class count must be positive: %d", count)
	}

	if count > MaxCount {
		return nil, errors.Errorf("classify: class count must be at most %d: %d", MaxCount, count)
	}

	min, max := minMax(values)

	var (
		raw []float64
		err error
	)
	switch method {
	case EqualInterval:
		raw = equalInterval(min, max, count)
	case NaturalBreaks:
		raw, err = naturalBreaks(values, count, min, max)
	case SquareRoot:
		raw, err = squareRoot(values, count, min)
	case Logarithmic:
		raw, err = logarithmic(count, min, max)
	default:
		return nil, errors.Errorf("classify: unknown method: %d", method)
	}

	if err != nil {
		return nil, errors.WithMessage(err, method.String())
	}

	if min == max {
		raw = []float64{min, max}
	}

	return round(raw), nil
}

func equalInterval(min, max float64, count int) []float64 {
	result := make([]float64, count+1)
	interval := (max - min) / float64(count)

	val := min
	for i := 0; i <= count; i++ {
		result[i] = val
		val += interval
	}
	result[count] = max

	return result
}

func squareRoot(values []float64, count int, min float64) ([]float64, error) {
	if min < 0 {
		return nil, ErrUnsupported
	}

	sqrts := make([]float64, len(values))
	for i, v := range values {
		sqrts[i] = math.Sqrt(v)
	}

	smin, smax := minMax(sqrts)
	result := equalInterval(smin, smax, count)
	for i, v := range result {
		result[i] = v * v
	}

	return result, nil
}

func logarithmic(count int, min, max float64) ([]float64, error) {
	if min <= 0 {
		return nil, ErrUnsupported
	}

	logMin := math.Log10(min)
	interval := (math.Log10(max) - logMin) / float64(count)

	result := make([]float64, count+1)
	for i := 0; i < count; i++ {
		result[i] = math.Pow(10, logMin+float64(i)*interval)
	}
	result[count] = max

	return result, nil
}

func naturalBreaks(values []float64, count int, min, max float64) ([]float64, error) {
	if min == max || len(values) < count {
		return nil, ErrUnsupported
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return jenks(sorted, count), nil
}

// round moves the first boundary down and all others up to two
// decimal points. The others also get the epsilon.
func round(raw []float64) Breaks {
	result := make(Breaks, len(raw))
	for i, v := range raw {
		if i == 0 {
			result[i] = math.Floor(v*100) / 100
			continue
		}

		result[i] = util.TwoDecimalPoint(math.Ceil(v*100)/100 + Epsilon)
	}

	return result
}

func finite(values []float64) []float64 {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			result := append([]float64(nil), values[:i]...)
			for _, v := range values[i+1:] {
				if !math.IsNaN(v) && !math.IsInf(v, 0) {
					result = append(result, v)
				}
			}
			return result
		}
	}

	return values
}

func minMax(values []float64) (float64, float64) {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}

		if v > max {
			max = v
		}
	}

	return min, max
}
