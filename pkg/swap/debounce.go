package swap

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a quote is recomputed
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the last of a burst of triggers, once the input has
// been quiet for the delay.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	seq     uint64
	running sync.WaitGroup
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn and cancels whatever was pending
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// fire runs the pending call if it is still the one scheduled as seq; zero
// matches any.
func (d *Debouncer) fire(seq uint64) {
	fn := d.claim(seq)
	if fn == nil {
		return
	}
	defer d.running.Done()
	fn()
}

// claim takes the pending call; the caller owns one running slot
func (d *Debouncer) claim(seq uint64) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != 0 && seq != d.seq {
		return nil
	}
	fn := d.pending
	d.pending = nil
	if fn != nil {
		d.running.Add(1)
	}
	return fn
}

// Flush runs the pending call now instead of waiting out the delay, then
// waits for any call already in progress.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.fire(0)
	d.running.Wait()
}

// Stop cancels the pending call, if any
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}
