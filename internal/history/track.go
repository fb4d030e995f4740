package history

import (
	"context"
)

// Track runs fn and records it as a run of tool. Failing to record history is
// logged and never fails the batch; fn's own error is returned unchanged.
// A nil Tracker just runs fn.
func (t *Tracker) Track(ctx context.Context, tool string, inputs map[string]string, output string, fn func() (map[string]int, error)) error {
	if t == nil {
		_, err := fn()
		return err
	}

	run, err := t.Start(ctx, tool, inputs, output)
	if err != nil {
		t.log.Warn("could not record run start", "tool", tool, "error", err)
		_, runErr := fn()
		return runErr
	}

	stats, runErr := fn()
	if err := t.Finish(ctx, run, stats, runErr); err != nil {
		t.log.Warn("could not record run result", "run_id", run.ID, "error", err)
	}
	return runErr
}
