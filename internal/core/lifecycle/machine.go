package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// TransitionError reports a write outside the transition table
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("lifecycle: transition %s -> %s not allowed", e.From, e.To)
}

// settle moves to active unless the user paused the site while it regenerated
func settle(st State, now time.Time) (State, error) {
	if st.Status == Paused {
		st.UpdatedAt = now.UTC()
		return st, nil
	}
	return move(st, Active, now)
}

func move(st State, to Status, now time.Time) (State, error) {
	if !CanTransition(st.Status, to) {
		return st, &TransitionError{From: st.Status, To: to}
	}
	st.Status = to
	st.UpdatedAt = now.UTC()
	return st, nil
}

// Begin attaches fresh progress for a run of total tasks. A live site keeps
// its status while it regenerates, every other status moves to building
func Begin(st State, total int, now time.Time) (State, error) {
	p := NewProgress(total, now)
	if Live(st.Status) {
		st.Progress = &p
		st.UpdatedAt = now.UTC()
		return st, nil
	}
	next, err := move(st, Building, now)
	if err != nil {
		return st, err
	}
	next.Progress = &p
	next.StatusMessage = ""
	return next, nil
}

// FinalizeSuccess marks the site active and leaves a completed progress record
func FinalizeSuccess(st State, now time.Time) (State, error) {
	next, err := settle(st, now)
	if err != nil {
		return st, err
	}
	next.StatusMessage = ""
	if next.Progress != nil {
		p := next.Progress.Complete()
		next.Progress = &p
	}
	return next, nil
}

// FinalizeFatal marks a site that was not live before the run as failed.
// Progress is kept so the dashboard can show where the run stopped
func FinalizeFatal(st State, wasActive bool, msg string, now time.Time) (State, error) {
	if wasActive {
		return st, fmt.Errorf("lifecycle: fatal finalize on a site that was active")
	}
	next, err := move(st, Failed, now)
	if err != nil {
		return st, err
	}
	next.StatusMessage = messageOr(msg, MsgBuildFailed)
	return next, nil
}

// FinalizeNonFatalOnActive keeps a live site active after a failed regeneration
func FinalizeNonFatalOnActive(st State, msg string, now time.Time) (State, error) {
	next, err := settle(st, now)
	if err != nil {
		return st, err
	}
	next.Progress = nil
	next.StatusMessage = messageOr(msg, MsgRegenerationFailed)
	return next, nil
}

// FinalizeFailure picks the failure path by whether the site was live when the run began
func FinalizeFailure(st State, wasActive bool, cause string, now time.Time) (State, error) {
	if wasActive {
		return FinalizeNonFatalOnActive(st, regenMessage(cause), now)
	}
	return FinalizeFatal(st, false, buildMessage(cause), now)
}

func regenMessage(cause string) string {
	if strings.TrimSpace(cause) == "" {
		return MsgRegenerationFailed
	}
	return MsgRegenerationFailed + " (" + cause + ")"
}

func buildMessage(cause string) string {
	if strings.TrimSpace(cause) == "" {
		return MsgBuildFailed
	}
	return MsgBuildFailed + ": " + cause
}

func messageOr(msg, def string) string {
	if strings.TrimSpace(msg) == "" {
		return def
	}
	return msg
}
