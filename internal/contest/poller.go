package contest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"yacontest/internal/components/chrono"
)

// PollInterval is the minimum time between the starts of two status requests.
const PollInterval = 500 * time.Millisecond

// Poller fetches a submission's status until it reaches a final verdict.
type Poller struct {
	Fetch func(ctx context.Context) (SolutionStatus, error)
	Clock chrono.API
	// Out receives a single "Testing..." line once judging starts.
	Out      io.Writer
	Interval time.Duration
	// Timeout <= 0 polls until ctx is done.
	Timeout time.Duration
}

func (p Poller) Run(ctx context.Context) (SolutionStatus, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = PollInterval
	}

	announced := false
	for {
		start := p.Clock.Now()

		status, err := p.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return SolutionStatus{}, fmt.Errorf("%w: %w", ErrPollingAborted, ctx.Err())
			}
			return SolutionStatus{}, err
		}
		if status.IsFinal() {
			return status, nil
		}
		if status.IsTesting() && !announced {
			announced = true
			fmt.Fprintln(p.Out, "Testing...")
		}

		wait := interval - p.Clock.Now().Sub(start)
		if wait <= 0 {
			if ctx.Err() != nil {
				return SolutionStatus{}, fmt.Errorf("%w: %w", ErrPollingAborted, ctx.Err())
			}
			continue
		}
		err = p.Clock.Sleep(ctx, wait)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return SolutionStatus{}, fmt.Errorf("%w: %w", ErrPollingAborted, err)
		}
		if err != nil {
			return SolutionStatus{}, err
		}
	}
}
