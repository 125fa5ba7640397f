package stats

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Empty(t *testing.T) {
	s := NewRecorder().Summary()

	assert.Equal(t, 0, s.Count)
	assert.Zero(t, s.P50)
	assert.Empty(t, s.Slowest)
}

func TestRecorder_Summary(t *testing.T) {
	r := NewRecorder()
	for i := 1; i <= 100; i++ {
		r.Record(fmt.Sprintf("t%03d.lox", i), time.Duration(i)*time.Millisecond)
	}
	r.RecordTimeout("slow.lox")

	s := r.Summary()

	assert.Equal(t, 100, s.Count)
	assert.Equal(t, 1, s.Timeouts)
	assert.Equal(t, 5050*time.Millisecond, s.Total)
	assert.InDelta(t, float64(time.Millisecond), float64(s.Min), float64(time.Millisecond)/100)
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(time.Millisecond))
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(s.P95), float64(time.Millisecond))
	assert.InDelta(t, float64(50500*time.Microsecond), float64(s.Mean), float64(time.Millisecond))

	require.Len(t, s.Slowest, SlowestCount)
	assert.Equal(t, "t100.lox", s.Slowest[0].Name)
	assert.Equal(t, "t096.lox", s.Slowest[4].Name)
}

func TestRecorder_ClampsOutOfRange(t *testing.T) {
	r := NewRecorder()
	r.Record("instant.lox", 0)
	r.Record("forever.lox", 2*time.Minute)

	s := r.Summary()
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, "forever.lox", s.Slowest[0].Name)
	assert.Equal(t, 2*time.Minute, s.Slowest[0].Duration)
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Record(fmt.Sprintf("t%d", i), time.Millisecond)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, r.Summary().Count)
}
