// Package lifecycle holds the site status state machine and the build progress value
package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// Status is the site lifecycle state as persisted in sites.status
type Status string

// Site statuses
const (
	Pending  Status = "pending"
	Building Status = "building"
	Active   Status = "active"
	Paused   Status = "paused"
	Failed   Status = "failed"
)

// ParseStatus maps a stored string to a Status
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case Pending, Building, Active, Paused, Failed:
		return st, nil
	default:
		return "", fmt.Errorf("lifecycle: unknown status %q", s)
	}
}

func (s Status) String() string { return string(s) }

// Trigger identifies who asked for a build
type Trigger string

// Trigger kinds
const (
	// TriggerUser is a regenerate or retry request from the dashboard
	TriggerUser Trigger = "user"

	// TriggerSystem is the post-payment webhook or an operator command
	TriggerSystem Trigger = "system"
)

// Messages recorded in sites.status_message
const (
	MsgRegenerationFailed = "Content regeneration failed. Your live site is unchanged; please try again."
	MsgBuildFailed        = "Content generation failed"
)

// State is the lifecycle slice of a site row
type State struct {
	Status        Status
	Progress      *Progress
	StatusMessage string
	UpdatedAt     time.Time
}

// transitions is the full set of status writes the build path may perform.
// active -> active covers a regeneration that finishes while the site stays live,
// building -> building covers a stale run reclaimed after its lease expired.
// A paused site regenerates in place and is only unpaused by the user
var transitions = map[Status][]Status{
	Pending:  {Building, Paused},
	Building: {Building, Active, Failed},
	Active:   {Building, Active, Paused},
	Paused:   {},
	Failed:   {Building, Paused},
}

// Live reports whether the site has published content: active, or paused by
// the user after going live. A live site never moves to building or failed
func Live(s Status) bool { return s == Active || s == Paused }

// CanTransition reports whether from -> to is an allowed write
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CanStartBuild is false only when a user asks while a build is in flight.
// System triggers are always let through; concurrent runs are fenced by the build lease
func CanStartBuild(s Status, t Trigger) bool {
	return !(s == Building && t == TriggerUser)
}
