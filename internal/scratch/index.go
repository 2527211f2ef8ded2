package scratch

import (
	"errors"
	"math"

	"github.com/nao1215/scratchindex/internal/histogram"
)

var (
	// ErrEmptyHistogram is returned when either histogram holds no pixels.
	ErrEmptyHistogram = errors.New("histogram has no pixels")

	// ErrInvalidWeighting is returned when a weighting never exceeds zero or
	// yields a negative or non-finite weight.
	ErrInvalidWeighting = errors.New("weighting must be finite, non-negative and not all zero")
)

// Normalization selects the constant raw scores are divided by.
type Normalization int

const (
	// NormalizeByMaxWeight divides by max(w). Moving all pixels from white to
	// black (or back) scores exactly 1 under the default weighting.
	//
	// Raw scores can reach 2·max(w), so anything above max(w) saturates at 1.
	// Under linear weighting a white reference compared with a near-white
	// image has raw 1+254/255 and lands on 1, the same as the black image.
	// Use NormalizeByDoubleMaxWeight when such heavy damage must still be
	// ranked.
	NormalizeByMaxWeight Normalization = iota

	// NormalizeByDoubleMaxWeight divides by 2·max(w), the loose upper bound of
	// raw for any pair of histograms. Scores never need clamping but the
	// white/black extreme only reaches 0.5.
	NormalizeByDoubleMaxWeight
)

// String returns the normalization name used in configuration.
func (n Normalization) String() string {
	switch n {
	case NormalizeByMaxWeight:
		return "max-weight"
	case NormalizeByDoubleMaxWeight:
		return "double-max-weight"
	default:
		return "unknown"
	}
}

// ParseNormalization maps a configuration name back to a Normalization.
func ParseNormalization(s string) (Normalization, bool) {
	switch s {
	case "", "max-weight":
		return NormalizeByMaxWeight, true
	case "double-max-weight":
		return NormalizeByDoubleMaxWeight, true
	default:
		return 0, false
	}
}

// Calculator compares histograms. It is immutable and safe for concurrent use.
type Calculator struct {
	weighting     Weighting
	normalization Normalization
	weights       [histogram.Levels]float64
	divisor       float64
	err           error
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithWeighting replaces the default linear weighting.
func WithWeighting(w Weighting) Option {
	return func(c *Calculator) {
		if w != nil {
			c.weighting = w
		}
	}
}

// WithNormalization selects the normalization constant.
func WithNormalization(n Normalization) Option {
	return func(c *Calculator) {
		c.normalization = n
	}
}

// NewCalculator creates a Calculator using LinearWeighting and
// NormalizeByMaxWeight unless overridden.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		weighting:     LinearWeighting{},
		normalization: NormalizeByMaxWeight,
	}
	for _, opt := range opts {
		opt(c)
	}

	weights, maxWeight := weightTable(c.weighting)
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			c.err = ErrInvalidWeighting
		}
	}
	if maxWeight <= 0 {
		c.err = ErrInvalidWeighting
	}
	c.weights = weights

	switch c.normalization {
	case NormalizeByDoubleMaxWeight:
		c.divisor = 2 * maxWeight
	default:
		c.divisor = maxWeight
	}
	return c
}

// Raw returns the un-normalized score Σ w(q)|r_ref(q) − r_test(q)|.
func (c *Calculator) Raw(ref, test *histogram.Histogram) (float64, error) {
	if c.err != nil {
		return 0, c.err
	}
	if ref == nil || test == nil || ref.Empty() || test.Empty() {
		return 0, ErrEmptyHistogram
	}

	refTotal := float64(ref.TotalPixels)
	testTotal := float64(test.TotalPixels)

	var raw float64
	for q := 0; q < histogram.Levels; q++ {
		if ref.Counts[q] == 0 && test.Counts[q] == 0 {
			continue
		}
		diff := float64(ref.Counts[q])/refTotal - float64(test.Counts[q])/testTotal
		raw += c.weights[q] * math.Abs(diff)
	}
	return raw, nil
}

// Index returns the scratch index of test against ref, in [0, 1]. Values
// past the normalization constant are clamped to 1.
// Comparing a histogram with itself returns exactly 0, and swapping the
// arguments returns the same value.
func (c *Calculator) Index(ref, test *histogram.Histogram) (float64, error) {
	raw, err := c.Raw(ref, test)
	if err != nil {
		return 0, err
	}
	return clamp01(raw / c.divisor), nil
}

// Normalization returns the configured normalization.
func (c *Calculator) Normalization() Normalization {
	return c.normalization
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
