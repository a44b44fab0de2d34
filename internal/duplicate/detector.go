package duplicate

import (
	"context"
	"time"

	"form-shield/internal/metrics"
	"form-shield/internal/submission"
)

// Flood policy. Counts include the submission being evaluated.
const (
	HardCount   = 5
	HardScore   = 95.0
	SoftCount   = 3
	SoftPenalty = 20.0

	DefaultWindow = 60 * time.Second
)

// Kind is the effect a duplicate count has on a verdict.
type Kind int

const (
	None Kind = iota
	Soft
	Hard
)

func (k Kind) String() string {
	switch k {
	case Hard:
		return "hard"
	case Soft:
		return "soft"
	default:
		return "none"
	}
}

// Info describes equivalent submissions seen within the trailing window.
type Info struct {
	Count  int `json:"count"`
	Window int `json:"time_window"`
}

func (i Info) Kind() Kind {
	switch {
	case i.Count >= HardCount:
		return Hard
	case i.Count >= SoftCount:
		return Soft
	default:
		return None
	}
}

// Counter counts submissions equivalent to sub within window, including sub.
type Counter interface {
	Count(ctx context.Context, sub submission.Submission, window time.Duration) (int, error)
}

type Detector struct {
	counter Counter
}

func NewDetector(c Counter) *Detector { return &Detector{counter: c} }

// Check reports whether sub repeats recent content. found is false when sub
// is the only one in the window. Errors leave found false.
func (d *Detector) Check(ctx context.Context, sub submission.Submission, window time.Duration) (Info, bool, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	n, err := d.counter.Count(ctx, sub, window)
	if err != nil {
		return Info{}, false, err
	}
	info := Info{Count: n, Window: int(window / time.Second)}
	if k := info.Kind(); k != None {
		metrics.DuplicateHits.WithLabelValues(k.String()).Inc()
	}
	return info, n > 1, nil
}
