package formula

import (
	"fmt"
	"time"
)

// evalResult passes evaluation results through channels.
type evalResult struct {
	values []float64
	err    error
}

// waitWithTimeout waits for a result from ch, but returns ErrTimeout if
// the evaluation exceeds timeout.
//
// On timeout the goroutine may still be running. Its channel is buffered so
// the late send never blocks, and the result is dropped.
func waitWithTimeout(ch <-chan evalResult, timeout time.Duration) ([]float64, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.values, res.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
