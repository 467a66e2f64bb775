package schedule

// Time is the frame clock. Elapsed counts seconds since the first frame.
type Time struct {
	Elapsed float64
	delta   float64
	Frame   uint64

	start   float64
	started bool
}

// Advance moves the clock to now, a monotonic timestamp in seconds.
func (t *Time) Advance(now float64) {
	if !t.started {
		t.start = now
		t.started = true
		t.Elapsed = 0
		t.delta = 0
		return
	}
	elapsed := now - t.start
	if elapsed < t.Elapsed {
		elapsed = t.Elapsed
	}
	t.delta = elapsed - t.Elapsed
	t.Elapsed = elapsed
	t.Frame++
}

// Delta is the time between the two most recent frames.
func (t *Time) Delta() float64 {
	return t.delta
}

// FixedClock is a Time stand-in that always reports the same delta.
type FixedClock float64

func (c FixedClock) Delta() float64 { return float64(c) }
