// Package profiler keeps rolling timing and value statistics for the
// prediction pipeline and logs them periodically.
package profiler

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options configures a Profiler.
type Options struct {
	// ReportInterval is how often a summary is logged. Zero disables reports.
	ReportInterval time.Duration `mapstructure:"report_interval"`
	// MaxSamples bounds the rolling window kept per metric (default: 600).
	MaxSamples int `mapstructure:"max_samples"`
}

// Profiler records operation timings and metric values.
//
// All methods are safe for concurrent use.
type Profiler struct {
	opts   Options
	logger *zap.Logger

	mu        sync.RWMutex
	startTime time.Time
	metrics   map[string]*window
	timings   map[string]*window

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// window holds the last n samples of one series.
type window struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

func (w *window) add(v float64, limit int) {
	if w.count == 0 || v < w.min {
		w.min = v
	}
	if w.count == 0 || v > w.max {
		w.max = v
	}
	w.values = append(w.values, v)
	w.sum += v
	if len(w.values) > limit {
		w.sum -= w.values[0]
		w.values = w.values[1:]
	}
	w.count++
}

// Stat summarises one series.
type Stat struct {
	Avg     float64 `json:"avg"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Samples int     `json:"samples"`
	Count   int64   `json:"count"`
}

func (w *window) stat() Stat {
	s := Stat{Min: w.min, Max: w.max, Samples: len(w.values), Count: w.count}
	if len(w.values) > 0 {
		s.Avg = w.sum / float64(len(w.values))
	}
	return s
}

// Snapshot is a point-in-time copy of every series plus runtime figures.
type Snapshot struct {
	Uptime     string          `json:"uptime"`
	Goroutines int             `json:"goroutines"`
	HeapAlloc  uint64          `json:"heap_alloc"`
	NumGC      uint32          `json:"num_gc"`
	Metrics    map[string]Stat `json:"metrics"`
	// Timings are in milliseconds.
	Timings map[string]Stat `json:"timings"`
}

// New returns a Profiler. A nil logger disables reports.
func New(opts Options, logger *zap.Logger) *Profiler {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		opts:      opts,
		logger:    logger,
		startTime: time.Now(),
		metrics:   make(map[string]*window),
		timings:   make(map[string]*window),
	}
}

// Start begins periodic reporting until ctx is done or Stop is called.
// Calling Start on a running profiler does nothing.
func (p *Profiler) Start(ctx context.Context) {
	if p.opts.ReportInterval <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.opts.ReportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.report()
			}
		}
	}()
}

// Stop ends reporting and waits for the reporter to exit.
func (p *Profiler) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		p.wg.Wait()
	}
}

// RecordMetric adds a value to the named series.
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	series(p.metrics, name).add(value, p.opts.MaxSamples)
}

// RecordDuration adds a timing to the named operation.
func (p *Profiler) RecordDuration(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	series(p.timings, name).add(float64(d)/float64(time.Millisecond), p.opts.MaxSamples)
}

// StartOperation begins timing name and returns the function that ends it.
//
// Usage:
//
//	defer p.StartOperation("inference")()
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.RecordDuration(name, time.Since(start))
	}
}

func series(m map[string]*window, name string) *window {
	w, ok := m[name]
	if !ok {
		w = &window{}
		m[name] = w
	}
	return w
}

// Snapshot returns the current statistics.
func (p *Profiler) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		Uptime:     time.Since(p.startTime).Truncate(time.Millisecond).String(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		NumGC:      mem.NumGC,
		Metrics:    make(map[string]Stat, len(p.metrics)),
		Timings:    make(map[string]Stat, len(p.timings)),
	}
	for name, w := range p.metrics {
		s.Metrics[name] = w.stat()
	}
	for name, w := range p.timings {
		s.Timings[name] = w.stat()
	}
	return s
}

func (p *Profiler) report() {
	s := p.Snapshot()

	p.logger.Info("profiler report",
		zap.String("uptime", s.Uptime),
		zap.Int("goroutines", s.Goroutines),
		zap.Uint64("heap_alloc", s.HeapAlloc),
		zap.Uint32("num_gc", s.NumGC),
	)
	for _, name := range sortedKeys(s.Timings) {
		t := s.Timings[name]
		p.logger.Info("operation timing",
			zap.String("operation", name),
			zap.Float64("avg_ms", t.Avg),
			zap.Float64("min_ms", t.Min),
			zap.Float64("max_ms", t.Max),
			zap.Int64("count", t.Count),
		)
	}
	for _, name := range sortedKeys(s.Metrics) {
		m := s.Metrics[name]
		p.logger.Info("metric",
			zap.String("metric", name),
			zap.Float64("avg", m.Avg),
			zap.Float64("min", m.Min),
			zap.Float64("max", m.Max),
			zap.Int64("count", m.Count),
		)
	}
}

func sortedKeys(m map[string]Stat) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
