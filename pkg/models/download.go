package models

import (
	"time"
)

// Download represents a queued remote file download. The row is created by the
// API and advanced by the external worker.
type Download struct {
	ID             string         `json:"id" db:"id"`
	URL            string         `json:"url" db:"url"`
	Filename       *string        `json:"filename" db:"filename"`
	CustomFilename *string        `json:"custom_filename,omitempty" db:"custom_filename"`
	Status         DownloadStatus `json:"status" db:"status"`
	Progress       int            `json:"progress" db:"progress"` // percent, 0-100
	Size           *int64         `json:"size,omitempty" db:"size"`
	Speed          *int64         `json:"speed,omitempty" db:"speed"` // bytes/sec
	ETA            *int64         `json:"eta,omitempty" db:"eta"`     // seconds
	AddedAt        time.Time      `json:"added_at" db:"added_at"`
	StartedAt      *time.Time     `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage   *string        `json:"error_message,omitempty" db:"error_message"`
	TargetPath     *string        `json:"target_path,omitempty" db:"target_path"`
}

// DownloadStatus is the lifecycle state of a download.
type DownloadStatus string

// DownloadStatus constants
const (
	DownloadStatusPending     DownloadStatus = "pending"
	DownloadStatusDownloading DownloadStatus = "downloading"
	DownloadStatusPaused      DownloadStatus = "paused"
	DownloadStatusCompleted   DownloadStatus = "completed"
	DownloadStatusError       DownloadStatus = "error"
	DownloadStatusCancelled   DownloadStatus = "cancelled"
)

var downloadTransitions = map[DownloadStatus][]DownloadStatus{
	DownloadStatusPending: {
		DownloadStatusDownloading,
		DownloadStatusCancelled,
	},
	DownloadStatusDownloading: {
		DownloadStatusCompleted,
		DownloadStatusError,
		DownloadStatusCancelled,
		DownloadStatusPaused,
	},
	DownloadStatusPaused: {
		DownloadStatusDownloading,
		DownloadStatusCancelled,
	},
}

// Valid reports whether s is a known status.
func (s DownloadStatus) Valid() bool {
	switch s {
	case DownloadStatusPending, DownloadStatusDownloading, DownloadStatusPaused,
		DownloadStatusCompleted, DownloadStatusError, DownloadStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s DownloadStatus) IsTerminal() bool {
	return s == DownloadStatusCompleted || s == DownloadStatusError || s == DownloadStatusCancelled
}

// CanTransitionTo reports whether the state machine permits s -> next.
func (s DownloadStatus) CanTransitionTo(next DownloadStatus) bool {
	for _, allowed := range downloadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CancellableStatuses lists the statuses from which a cancel is accepted.
func CancellableStatuses() []DownloadStatus {
	var out []DownloadStatus
	for _, s := range []DownloadStatus{DownloadStatusPending, DownloadStatusDownloading, DownloadStatusPaused} {
		if s.CanTransitionTo(DownloadStatusCancelled) {
			out = append(out, s)
		}
	}
	return out
}
