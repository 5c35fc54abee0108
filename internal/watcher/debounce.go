package watcher

import (
	"sort"
	"sync"
	"time"
)

// Debouncer collects events and calls fire once no new event has arrived
// for delay. Bursts from a copy or an unpack collapse into one call.
type Debouncer struct {
	delay time.Duration
	fire  func(paths []string)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
	stopped bool
}

func NewDebouncer(delay time.Duration, fire func(paths []string)) *Debouncer {
	return &Debouncer{
		delay:   delay,
		fire:    fire,
		pending: make(map[string]struct{}),
	}
}

// HandleFileEvent implements Handler.
func (d *Debouncer) HandleFileEvent(ev FileEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return nil
	}

	d.pending[ev.Path] = struct{}{}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.flush)
	} else {
		d.timer.Reset(d.delay)
	}
	return nil
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	sort.Strings(paths)
	d.fire(paths)
}

// Stop drops pending events and cancels the timer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[string]struct{})
}
