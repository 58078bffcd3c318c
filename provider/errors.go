package provider

import "errors"

// Sentinel errors returned by providers. Controllers map these onto HTTP
// statuses with errors.Is; background workers only log them.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrPermissionDenied = errors.New("permission denied")
	ErrArchiveNotReady  = errors.New("archive not ready")
	ErrQueueFull        = errors.New("cleanup queue full")
)
