package processor

// State is the debounced detection state.
type State int

const (
	Silent State = iota
	Sounding
)

func (s State) String() string {
	if s == Sounding {
		return "sounding"
	}
	return "silent"
}

// Transition is a confirmed state change. Since is the position of the first
// sample that disagreed with the previous state, not the confirming sample.
type Transition struct {
	To    State
	Since int64

	// Initial marks the synthetic confirmation that the stream opened silent.
	Initial bool
}

// Detector debounces per-sample loudness decisions into Silent/Sounding.
// It only sees positions, so it works unchanged for backward scans.
type Detector struct {
	confirmed State
	raw       State
	holdoff   int64
	pending   int64 // consecutive samples where raw != confirmed
	since     int64

	initialLeft  int64 // silent samples still needed for the initial marker
	initialArmed bool
	initialPos   int64
}

// NewDetector returns a Silent detector that confirms a change after
// holdoff consecutive disagreeing samples.
func NewDetector(holdoff int64) *Detector {
	return &Detector{holdoff: max(holdoff, 1)}
}

// ArmInitial requests an initial-state marker at pos once holdoff samples of
// unbroken silence have been seen.
func (d *Detector) ArmInitial(pos int64) {
	d.initialArmed = true
	d.initialLeft = d.holdoff
	d.initialPos = pos
}

// Update feeds the loudness decision for the sample at pos.
func (d *Detector) Update(pos int64, loud bool) (Transition, bool) {
	d.raw = Silent
	if loud {
		d.raw = Sounding
	}

	if d.raw == d.confirmed {
		d.pending = 0
		if d.initialArmed && d.confirmed == Silent {
			d.initialLeft--
			if d.initialLeft == 0 {
				d.initialArmed = false
				return Transition{To: Silent, Since: d.initialPos, Initial: true}, true
			}
		}
		return Transition{}, false
	}

	if d.initialArmed {
		// silence was broken; the countdown starts over
		d.initialLeft = d.holdoff
	}
	if d.pending == 0 {
		d.since = pos
	}
	d.pending++
	if d.pending < d.holdoff {
		return Transition{}, false
	}

	d.confirmed = d.raw
	d.pending = 0
	if d.confirmed == Sounding {
		d.initialArmed = false
	}
	return Transition{To: d.confirmed, Since: d.since}, true
}

// State returns the confirmed state.
func (d *Detector) State() State { return d.confirmed }

// Raw returns this sample's undebounced state.
func (d *Detector) Raw() State { return d.raw }

// Pending returns the current holdoff count.
func (d *Detector) Pending() int64 { return d.pending }

// Reset returns the detector to Silent with no pending transition.
func (d *Detector) Reset() {
	*d = Detector{holdoff: d.holdoff}
}
