package framework

import (
	"context"
	"fmt"
	"io"
	"time"
)

const DefaultReadinessInterval = 2 * time.Second

// ReadinessPolicy controls how WaitUntilReady polls.
type ReadinessPolicy struct {
	Interval time.Duration
	Deadline time.Duration
	Clock    Clock
}

// ReadinessProbe makes one readiness check. An error means "not ready yet".
type ReadinessProbe func(ctx context.Context) (bool, error)

// WaitUntilReady calls probe until it reports ready or the policy's deadline has elapsed. Probe
// errors are expected while the service is starting, so they are not reported; the last one is
// shown only if the deadline expires.
func WaitUntilReady(
	ctx context.Context,
	policy ReadinessPolicy,
	description string,
	probe ReadinessProbe,
	output io.Writer,
) bool {
	clock := policy.Clock
	if clock == nil {
		clock = SystemClock()
	}
	interval := policy.Interval
	if interval <= 0 {
		interval = DefaultReadinessInterval
	}

	fmt.Fprintf(output, "Waiting for MCP server at %s (up to %s)", description, policy.Deadline)
	start := clock.Now()
	var lastErr error
	for {
		fmt.Fprint(output, ".")
		ready, err := probeWithin(ctx, probe, policy.Deadline-clock.Now().Sub(start))
		elapsed := clock.Now().Sub(start)
		if err == nil && ready {
			fmt.Fprintln(output)
			fmt.Fprintf(output, "Server available after %s\n", elapsed.Round(time.Second))
			return true
		}
		if err != nil {
			lastErr = err
		}
		if elapsed >= policy.Deadline || ctx.Err() != nil {
			fmt.Fprintln(output)
			fmt.Fprintf(output, "Timeout after %s waiting for server\n", elapsed.Round(time.Second))
			if lastErr != nil {
				fmt.Fprintf(output, "Last error: %s\n", lastErr)
			}
			return false
		}
		wait := interval
		if remaining := policy.Deadline - elapsed; remaining < wait {
			wait = remaining
		}
		clock.Sleep(wait)
	}
}

// probeWithin makes one probe call that cannot outlast the time remaining before the deadline.
func probeWithin(ctx context.Context, probe ReadinessProbe, remaining time.Duration) (bool, error) {
	if remaining <= 0 {
		remaining = time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()
	return probe(ctx)
}
