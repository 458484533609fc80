package inspect

import (
	"github.com/matzehuels/ifcwatch/pkg/errors"
)

// Status is a node's execution status, set by the host.
type Status string

// Node statuses.
const (
	StatusIdle    Status = "idle"
	StatusWorking Status = "working"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ParseStatus converts a string into a Status. The empty string maps to
// StatusIdle.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusIdle, nil
	case StatusIdle, StatusWorking, StatusSuccess, StatusError:
		return Status(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidStatus,
		"invalid status: %s (must be 'idle', 'working', 'success' or 'error')", s)
}

// Progress is the optional progress report of a working node.
type Progress struct {
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message,omitempty"`
}

// StatusState is everything the host reports about a node's execution.
type StatusState struct {
	Status   Status    `json:"status"`
	Progress *Progress `json:"progress,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// BadgeVariant is the visual treatment of the status badge.
type BadgeVariant string

// Badge variants, one per status.
const (
	BadgeNeutral BadgeVariant = "neutral"
	BadgeActive  BadgeVariant = "active"
	BadgeSuccess BadgeVariant = "success"
	BadgeFailure BadgeVariant = "failure"
)

// Visible names the region a node shows below its header.
type Visible int

// Visible regions. Exactly one is shown at a time.
const (
	VisibleData Visible = iota
	VisibleLoading
	VisibleError
)

func (v Visible) String() string {
	switch v {
	case VisibleLoading:
		return "loading"
	case VisibleError:
		return "error"
	default:
		return "data"
	}
}

// LoadingArgs configures the host's loading indicator.
type LoadingArgs struct {
	IsLoading       bool
	Message         string
	Percentage      *float64 // clamped to [0, 100]; nil without a progress report
	ProgressMessage string
}

// Projection is the status-derived part of a node's view.
type Projection struct {
	Status    Status
	Badge     BadgeVariant
	Visible   Visible
	Loading   LoadingArgs
	ErrorText string
}

// ShowData reports whether the content region is shown.
func (p Projection) ShowData() bool { return p.Visible == VisibleData }

// DefaultLoadingMessage is the loading text of nodes that define none.
const DefaultLoadingMessage = "Loading..."

// Project maps a status onto a badge and the single visible region.
// A working node shows the loading indicator; otherwise a non-empty error
// message shows the error whatever the status; every other state shows the
// data.
// loadingMessage is the node's default loading text.
func Project(s StatusState, loadingMessage string) Projection {
	status := s.Status
	if status == "" {
		status = StatusIdle
	}
	p := Projection{Status: status, Badge: badgeFor(status)}

	switch {
	case status == StatusWorking:
		p.Visible = VisibleLoading
		p.Loading = LoadingArgs{IsLoading: true, Message: loadingMessage}
		if s.Progress != nil {
			pct := clampPercentage(s.Progress.Percentage)
			p.Loading.Percentage = &pct
			p.Loading.ProgressMessage = s.Progress.Message
		}
	case s.Error != "":
		p.Visible = VisibleError
		p.ErrorText = s.Error
	default:
		p.Visible = VisibleData
	}
	return p
}

func badgeFor(s Status) BadgeVariant {
	switch s {
	case StatusWorking:
		return BadgeActive
	case StatusSuccess:
		return BadgeSuccess
	case StatusError:
		return BadgeFailure
	default:
		return BadgeNeutral
	}
}

func clampPercentage(p float64) float64 {
	switch {
	case p != p, p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
