package entity

import (
	"time"

	"github.com/google/uuid"
)

type ArchiveStatus string

const (
	ArchivePending    ArchiveStatus = "PENDING"
	ArchiveProcessing ArchiveStatus = "PROCESSING"
	ArchiveReady      ArchiveStatus = "READY"
	ArchiveFailed     ArchiveStatus = "FAILED"
)

// ArchiveJob tracks one folder-to-zip request. Jobs live only in the process
// registry, never in the database; status moves PENDING -> PROCESSING ->
// READY or FAILED and never transitions again.
type ArchiveJob struct {
	RequestID  uuid.UUID     `json:"request_id"`
	FolderID   uuid.UUID     `json:"folder_id"`
	Status     ArchiveStatus `json:"status"`
	ArchiveKey string        `json:"-"` // blob locator, set when READY
	CreatedAt  time.Time     `json:"created_at"`
}
