package profiler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecordMetric(t *testing.T) {
	p := New(Options{}, nil)
	p.RecordMetric("detections", 3)
	p.RecordMetric("detections", 1)
	p.RecordMetric("detections", 5)

	s := p.Snapshot()
	require.Contains(t, s.Metrics, "detections")

	got := s.Metrics["detections"]
	assert.InDelta(t, 3.0, got.Avg, 1e-9)
	assert.Equal(t, 1.0, got.Min)
	assert.Equal(t, 5.0, got.Max)
	assert.Equal(t, 3, got.Samples)
	assert.Equal(t, int64(3), got.Count)
}

func TestRecordMetric_WindowIsBounded(t *testing.T) {
	p := New(Options{MaxSamples: 2}, nil)
	p.RecordMetric("m", 10)
	p.RecordMetric("m", 2)
	p.RecordMetric("m", 4)

	got := p.Snapshot().Metrics["m"]
	assert.Equal(t, 2, got.Samples)
	assert.Equal(t, int64(3), got.Count)
	assert.InDelta(t, 3.0, got.Avg, 1e-9)
	// Min and max cover the whole lifetime.
	assert.Equal(t, 2.0, got.Min)
	assert.Equal(t, 10.0, got.Max)
}

func TestStartOperation(t *testing.T) {
	p := New(Options{}, nil)

	stop := p.StartOperation("decode")
	time.Sleep(2 * time.Millisecond)
	stop()

	got := p.Snapshot().Timings["decode"]
	assert.Equal(t, int64(1), got.Count)
	assert.GreaterOrEqual(t, got.Avg, 2.0)
}

func TestRecordDuration_Concurrent(t *testing.T) {
	p := New(Options{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.RecordDuration("inference", time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), p.Snapshot().Timings["inference"].Count)
}

func TestStartStop_Reports(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := New(Options{ReportInterval: 5 * time.Millisecond}, zap.New(core))
	p.RecordDuration("inference", 10*time.Millisecond)

	p.Start(context.Background())
	p.Start(context.Background())

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("operation timing").Len() > 0
	}, time.Second, 5*time.Millisecond)

	p.Stop()
	p.Stop()
}

func TestStart_DisabledWithoutInterval(t *testing.T) {
	p := New(Options{}, nil)
	p.Start(context.Background())
	p.Stop()
}
