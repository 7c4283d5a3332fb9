package skiplist

import (
	"fmt"
	"strings"

	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
)

// Status is the lifecycle status of an existing request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusProcessing Status = "PROCESSING"
	StatusAvailable  Status = "AVAILABLE"
	StatusDeclined   Status = "DECLINED"
	StatusFailed     Status = "FAILED"
	StatusUnknown    Status = "UNKNOWN"
)

// Terminal reports whether the request ended without media; such requests
// never block a new one.
func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusFailed
}

var textStatuses = map[string]Status{
	"pending":             StatusPending,
	"approved":            StatusApproved,
	"processing":          StatusProcessing,
	"available":           StatusAvailable,
	"partially_available": StatusAvailable,
	"completed":           StatusAvailable,
	"declined":            StatusDeclined,
	"failed":              StatusFailed,
}

// StatusOf derives the lifecycle status of a request from its request status
// and the status of its media. A declined or failed request wins over any
// media state; otherwise availability and processing of the media are more
// specific than the request's approval state.
func StatusOf(req jellyseerr.MediaRequest) Status {
	if s, ok := textStatuses[req.Status.Text]; ok {
		return s
	}

	switch req.Status.Code {
	case jellyseerr.RequestDeclined:
		return StatusDeclined
	case jellyseerr.RequestFailed:
		return StatusFailed
	}

	if req.Media != nil {
		media := req.Media.Status
		if req.Is4K && !req.Media.Status4K.IsZero() {
			media = req.Media.Status4K
		}
		switch media.Code {
		case jellyseerr.MediaAvailable, jellyseerr.MediaPartiallyAvailable:
			return StatusAvailable
		case jellyseerr.MediaProcessing:
			return StatusProcessing
		}
	}

	switch req.Status.Code {
	case jellyseerr.RequestCompleted:
		return StatusAvailable
	case jellyseerr.RequestApproved:
		return StatusApproved
	case jellyseerr.RequestPending:
		return StatusPending
	}

	if req.Status.Text != "" {
		return Status(strings.ToUpper(req.Status.Text))
	}
	if req.Status.Code != 0 {
		return Status(fmt.Sprintf("%s(%d)", StatusUnknown, req.Status.Code))
	}
	return StatusUnknown
}

// Reason is the human-readable skip reason for an indexed request.
func (s Status) Reason() string {
	switch s {
	case StatusAvailable:
		return "Already available"
	case StatusProcessing:
		return "Already requested (processing)"
	case StatusPending:
		return "Already requested (pending approval)"
	case StatusApproved:
		return "Already requested (approved)"
	default:
		return fmt.Sprintf("Already requested (status %s)", s)
	}
}
