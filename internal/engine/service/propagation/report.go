package propagation

import (
	"fmt"
	"strings"
)

// WorkspaceFailure records a single workspace that could not be updated.
type WorkspaceFailure struct {
	WorkspaceID string
	Err         error
}

func (f WorkspaceFailure) String() string {
	return fmt.Sprintf("%s: %v", f.WorkspaceID, f.Err)
}

// Report is the per-event outcome. An event can be partially applied: some
// workspaces updated, some skipped as stale or unchanged, some missing from
// the store, and some failed. Failures never abort the other workspaces.
type Report struct {
	// Requested is the deduplicated workspace ids carried by the event.
	Requested []string
	// Applied ids were mutated and written.
	Applied []string
	// Skipped ids needed no write (already in the target state, or the
	// event was older than the last applied team version).
	Skipped []string
	// Missing ids did not resolve to a workspace document.
	Missing []string
	// Failures are per-workspace write or lookup errors.
	Failures []WorkspaceFailure
}

func (r *Report) Failed() bool { return len(r.Failures) > 0 }

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "requested=%d applied=%d skipped=%d missing=%d failed=%d",
		len(r.Requested), len(r.Applied), len(r.Skipped), len(r.Missing), len(r.Failures))
	if len(r.Failures) > 0 {
		fails := make([]string, 0, len(r.Failures))
		for _, f := range r.Failures {
			fails = append(fails, f.String())
		}
		fmt.Fprintf(&b, " failures=[%s]", strings.Join(fails, "; "))
	}
	return b.String()
}
