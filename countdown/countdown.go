package countdown

import (
	"context"
	"fmt"
	"time"

	goGate "github.com/MrEthical07/goGate"
)

// Source yields the current gate state. *goGate.Engine satisfies it.
type Source interface {
	State(ctx context.Context) (goGate.State, error)
}

// Format renders d as "Hh Mm Ss", truncated to whole seconds. Negative
// durations render as zero.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%dh %dm %ds", total/3600, (total%3600)/60, total%60)
}

// Watch reads state from src immediately and then every interval, sending
// each read on the returned channel. After sending a state that is no longer
// locked the channel is closed. It is also closed when ctx ends or a read
// fails; callers wanting the error should call State themselves.
func Watch(ctx context.Context, src Source, interval time.Duration) <-chan goGate.State {
	if interval <= 0 {
		interval = time.Second
	}
	out := make(chan goGate.State)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			s, err := src.State(ctx)
			if err != nil {
				return
			}
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
			if !s.Locked {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Inactivity calls fn once after d unless the returned stop func is called or
// ctx ends first. Stop is safe to call more than once.
func Inactivity(ctx context.Context, d time.Duration, fn func()) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	timer := time.NewTimer(d)

	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
			if ctx.Err() == nil {
				fn()
			}
		case <-ctx.Done():
		}
	}()

	return cancel
}
