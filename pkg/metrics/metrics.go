package metrics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrLabelCountMismatch is returned when label values do not match the
	// metric's label names.
	ErrLabelCountMismatch = errors.New("label count mismatch")

	// ErrNegativeCounterValue is returned when a counter would decrease.
	ErrNegativeCounterValue = errors.New("counter cannot be decreased")

	// ErrDuplicateMetric is returned when a name is registered twice.
	ErrDuplicateMetric = errors.New("duplicate metric name")
)

// DefaultBuckets are histogram buckets for request durations, in seconds.
var DefaultBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metric is a named metric family.
type Metric interface {
	Name() string
	write(w io.Writer)
}

// series holds the per-label-combination state of a family.
type series[T any] struct {
	name       string
	help       string
	labelNames []string

	mu     sync.RWMutex
	values map[string]*T
	labels map[string][]string
}

func (s *series[T]) init(name, help string, labelNames []string) {
	s.name = name
	s.help = help
	s.labelNames = labelNames
	s.values = make(map[string]*T)
	s.labels = make(map[string][]string)
}

func (s *series[T]) Name() string { return s.name }

// get returns the value for labelValues, creating it with create.
func (s *series[T]) get(labelValues []string, create func() *T) (*T, error) {
	if len(labelValues) != len(s.labelNames) {
		return nil, fmt.Errorf("%w: %s expected %d labels, got %d", ErrLabelCountMismatch, s.name, len(s.labelNames), len(labelValues))
	}

	key := strings.Join(labelValues, "\x00")
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok = s.values[key]; !ok {
		v = create()
		s.values[key] = v
		s.labels[key] = slices.Clone(labelValues)
	}
	return v, nil
}

// each calls fn for every label combination in key order.
func (s *series[T]) each(fn func(labels []string, v *T)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fn(s.labels[k], s.values[k])
	}
}

func (s *series[T]) empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values) == 0
}

func (s *series[T]) header(w io.Writer, typ string) {
	fmt.Fprintf(w, "# HELP %s %s\n", s.name, escapeHelp(s.help))
	fmt.Fprintf(w, "# TYPE %s %s\n", s.name, typ)
}

// Counter is a monotonically increasing metric.
type Counter struct {
	series[atomicFloat64]
}

// Add adds delta to the counter for labelValues.
func (c *Counter) Add(delta float64, labelValues ...string) error {
	if delta < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeCounterValue, c.name)
	}
	v, err := c.get(labelValues, func() *atomicFloat64 { return &atomicFloat64{} })
	if err != nil {
		return err
	}
	v.Add(delta)
	return nil
}

// Inc adds one to the counter for labelValues.
func (c *Counter) Inc(labelValues ...string) error {
	return c.Add(1, labelValues...)
}

// Value returns the current value for labelValues, or 0 if never set.
func (c *Counter) Value(labelValues ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.values[strings.Join(labelValues, "\x00")]; ok {
		return v.Load()
	}
	return 0
}

func (c *Counter) write(w io.Writer) {
	if c.empty() {
		return
	}
	c.header(w, "counter")
	c.each(func(labels []string, v *atomicFloat64) {
		writeSample(w, c.name, c.labelNames, labels, "", v.Load())
	})
}

// Histogram tracks the distribution of observed values.
type Histogram struct {
	series[histogramValue]
	buckets []float64
}

type histogramValue struct {
	counts []atomic.Uint64
	sum    atomicFloat64
	count  atomic.Uint64
}

// Observe records value for labelValues.
func (h *Histogram) Observe(value float64, labelValues ...string) error {
	v, err := h.get(labelValues, func() *histogramValue {
		return &histogramValue{counts: make([]atomic.Uint64, len(h.buckets))}
	})
	if err != nil {
		return err
	}
	if i, _ := slices.BinarySearch(h.buckets, value); i < len(h.buckets) {
		v.counts[i].Add(1)
	}
	v.sum.Add(value)
	v.count.Add(1)
	return nil
}

func (h *Histogram) write(w io.Writer) {
	if h.empty() {
		return
	}
	h.header(w, "histogram")
	h.each(func(labels []string, v *histogramValue) {
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += v.counts[i].Load()
			writeSample(w, h.name+"_bucket", h.labelNames, labels, formatFloat(bound), float64(cumulative))
		}
		writeSample(w, h.name+"_bucket", h.labelNames, labels, "+Inf", float64(v.count.Load()))
		writeSample(w, h.name+"_sum", h.labelNames, labels, "", v.sum.Load())
		writeSample(w, h.name+"_count", h.labelNames, labels, "", float64(v.count.Load()))
	})
}

// Registry holds registered metrics. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	names   map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// NewCounter creates and registers a counter.
func (r *Registry) NewCounter(name, help string, labels ...string) (*Counter, error) {
	c := &Counter{}
	c.init(name, help, labels)
	if err := r.register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewHistogram creates and registers a histogram. buckets are upper bounds;
// a +Inf bucket is always added.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) (*Histogram, error) {
	b := slices.Clone(buckets)
	slices.Sort(b)
	b = slices.DeleteFunc(slices.Compact(b), func(f float64) bool { return math.IsInf(f, 1) })
	h := &Histogram{buckets: b}
	h.init(name, help, labels)
	if err := r.register(h); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *Registry) register(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[m.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMetric, m.Name())
	}
	r.names[m.Name()] = struct{}{}
	r.metrics = append(r.metrics, m)
	return nil
}

// WriteTo writes every metric with at least one sample in registration
// order.
func (r *Registry) WriteTo(w io.Writer) {
	r.mu.RLock()
	metrics := slices.Clone(r.metrics)
	r.mu.RUnlock()
	for _, m := range metrics {
		m.write(w)
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WriteTo(w)
	})
}

func writeSample(w io.Writer, name string, labelNames, labelValues []string, le string, value float64) {
	parts := make([]string, 0, len(labelNames)+1)
	for i, n := range labelNames {
		parts = append(parts, n+`="`+escapeLabelValue(labelValues[i])+`"`)
	}
	if le != "" {
		parts = append(parts, `le="`+le+`"`)
	}
	if len(parts) == 0 {
		fmt.Fprintf(w, "%s %s\n", name, formatFloat(value))
		return
	}
	fmt.Fprintf(w, "%s{%s} %s\n", name, strings.Join(parts, ","), formatFloat(value))
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escapeHelp(s string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(s)
}

func escapeLabelValue(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
}

// atomicFloat64 is a float64 updated with compare-and-swap.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) Add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}
