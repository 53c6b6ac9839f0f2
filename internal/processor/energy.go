package processor

// Estimator is the energy front end: a per-channel one-pole high-pass filter
// feeding one sliding window of squared samples shared by all channels.
//
// The window holds channels*sampleRate/50 values, about 20 ms of audio at any
// rate. sum always equals the sum of window.
type Estimator struct {
	a        float64
	limit    float64 // threshold² * len(window)
	x1, y1   []float64
	window   []float64
	cursor   int
	sum      float64
	channels int
}

// WindowSize returns the sliding window length for a stream layout.
func WindowSize(channels, sampleRate int) int {
	return max(channels*sampleRate/50, 1)
}

// NewEstimator allocates filter and window state for one stream.
func NewEstimator(channels, sampleRate int, a, threshold float64) *Estimator {
	size := WindowSize(channels, sampleRate)
	return &Estimator{
		a:        a,
		limit:    threshold * threshold * float64(size),
		x1:       make([]float64, channels),
		y1:       make([]float64, channels),
		window:   make([]float64, size),
		channels: channels,
	}
}

// Push filters one sample of channel c and slides it into the window.
// It reports whether the window energy exceeds the threshold afterwards.
func (e *Estimator) Push(c int, x0 float64) bool {
	y0 := e.a * (e.y1[c] + x0 - e.x1[c])
	e.x1[c] = x0
	e.y1[c] = y0

	sq := y0 * y0
	e.sum += sq - e.window[e.cursor]
	e.window[e.cursor] = sq
	e.cursor++
	if e.cursor == len(e.window) {
		e.cursor = 0
		e.resum()
	}
	return e.sum > e.limit
}

// Frame processes one interleaved frame. Any channel pushing the window over
// the threshold makes the whole frame loud.
func (e *Estimator) Frame(frame []float32) bool {
	loud := false
	for c := 0; c < e.channels; c++ {
		if e.Push(c, float64(frame[c])) {
			loud = true
		}
	}
	return loud
}

// resum recomputes the running sum once per window revolution so rounding
// error from the incremental updates cannot accumulate.
func (e *Estimator) resum() {
	var s float64
	for _, v := range e.window {
		s += v
	}
	e.sum = s
}

// Energy returns the current mean squared value of the window.
func (e *Estimator) Energy() float64 {
	return e.sum / float64(len(e.window))
}

// Reset zeroes filter and window state.
func (e *Estimator) Reset() {
	clear(e.x1)
	clear(e.y1)
	clear(e.window)
	e.cursor = 0
	e.sum = 0
}

// snapshot copies the state into dst, reusing its buffers.
func (e *Estimator) snapshot(dst *Estimator) {
	if dst.window == nil {
		dst.x1 = make([]float64, len(e.x1))
		dst.y1 = make([]float64, len(e.y1))
		dst.window = make([]float64, len(e.window))
	}
	copy(dst.x1, e.x1)
	copy(dst.y1, e.y1)
	copy(dst.window, e.window)
	dst.a, dst.limit, dst.channels = e.a, e.limit, e.channels
	dst.cursor, dst.sum = e.cursor, e.sum
}
