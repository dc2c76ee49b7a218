package beatgrid

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/tphakala/go-beatgrid/internal/mathutil"
)

// NoData is the text rendering of a TapResult without an estimate.
const NoData = "No data"

// TapResult is delivered to the tap callback. OK is false when the session
// was reset for inactivity and there is no estimate.
type TapResult struct {
	BPM float64
	OK  bool
}

// String returns the BPM, or NoData when there is no estimate.
func (r TapResult) String() string {
	if !r.OK {
		return NoData
	}
	return strconv.FormatFloat(r.BPM, 'f', -1, 64)
}

// TapConfig configures a TapTracker.
type TapConfig struct {
	// Precision is the number of decimal digits kept in estimates. The zero
	// value rounds to whole BPM; DefaultTapConfig keeps DefaultPrecision.
	Precision int

	// IdleTimeout resets the session when no tap arrives in time.
	// Zero selects DefaultTapIdleTimeout.
	IdleTimeout time.Duration
}

// DefaultTapConfig returns a TapConfig with DefaultPrecision and
// DefaultTapIdleTimeout.
func DefaultTapConfig() TapConfig {
	return TapConfig{
		Precision:   DefaultPrecision,
		IdleTimeout: DefaultTapIdleTimeout,
	}
}

type stopper interface {
	Stop() bool
}

// TapTracker estimates tempo from a stream of tap timestamps. The estimate
// after n+1 taps is 60000*n / (elapsed ms since the first tap), a running
// average with no outlier rejection. Timestamps are taken as given, so
// out-of-order taps produce meaningless or skipped estimates.
//
// The first tap of a session produces no callback. A tap whose timestamp is
// not after the first tap is counted but produces no callback either.
// Callbacks run on the tapping goroutine, or on a timer goroutine for the
// idle reset, and never while the tracker's lock is held.
type TapTracker struct {
	mu sync.Mutex

	precision int
	idle      time.Duration
	callback  func(TapResult)
	afterFunc func(time.Duration, func()) stopper

	count    int
	first    time.Time
	previous time.Time
	current  time.Time

	timer      stopper
	generation uint64
	stopped    bool
}

// NewTapTracker creates a tracker that reports estimates to callback.
func NewTapTracker(config TapConfig, callback func(TapResult)) *TapTracker {
	idle := config.IdleTimeout
	if idle <= 0 {
		idle = DefaultTapIdleTimeout
	}
	return &TapTracker{
		precision: min(max(config.Precision, 0), mathutil.MaxPrecision),
		idle:      idle,
		callback:  callback,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Tap records a tap at ts and re-arms the idle timer.
func (t *TapTracker) Tap(ts time.Time) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}

	var result TapResult
	if t.count == 0 {
		t.first, t.previous, t.current = ts, ts, ts
	} else {
		t.previous, t.current = t.current, ts
		if elapsed := ts.Sub(t.first); elapsed > 0 {
			ms := float64(elapsed) / float64(time.Millisecond)
			result = TapResult{
				BPM: mathutil.Round(msPerMinute*float64(t.count)/ms, t.precision),
				OK:  true,
			}
		}
	}
	t.count++
	t.armLocked()
	callback := t.callback
	t.mu.Unlock()

	if result.OK && callback != nil {
		callback(result)
	}
}

// Listen taps once per event until events is closed or ctx is done.
func (t *TapTracker) Listen(ctx context.Context, events <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts, ok := <-events:
			if !ok {
				return nil
			}
			t.Tap(ts)
		}
	}
}

// Count returns the number of taps in the current session.
func (t *TapTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// LastInterval returns the time between the two most recent taps, or zero
// before the second tap.
func (t *TapTracker) LastInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count < 2 {
		return 0
	}
	return t.current.Sub(t.previous)
}

// Reset clears the session without notifying the callback.
func (t *TapTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
	t.clearLocked()
}

// Stop cancels the idle timer and ignores further taps.
func (t *TapTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
	t.stopped = true
}

func (t *TapTracker) armLocked() {
	t.disarmLocked()
	gen := t.generation
	t.timer = t.afterFunc(t.idle, func() { t.expire(gen) })
}

// disarmLocked stops the pending timer. Bumping the generation also
// invalidates a timer that already fired and is waiting for the lock.
func (t *TapTracker) disarmLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.generation++
}

func (t *TapTracker) clearLocked() {
	t.count = 0
	t.first, t.previous, t.current = time.Time{}, time.Time{}, time.Time{}
}

func (t *TapTracker) expire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.generation {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.clearLocked()
	callback := t.callback
	t.mu.Unlock()

	if callback != nil {
		callback(TapResult{})
	}
}
