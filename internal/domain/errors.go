package domain

import "errors"

var (
	// Registry
	ErrNotFound = errors.New("not found")

	// Upload surface
	ErrUploadRejected = errors.New("upload rejected")
	ErrUploadTooLarge = errors.New("upload exceeds size limit")

	// Transform pipeline
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrDecode           = errors.New("decode image")
	ErrEncode           = errors.New("encode image")

	// Tool page session
	ErrSessionBusy   = errors.New("a transform is already in progress")
	ErrInvalidState  = errors.New("operation not allowed in current state")
	ErrNoImage       = errors.New("no image uploaded")
	ErrNoResult      = errors.New("no processed image available")
	ErrSuperseded    = errors.New("transform result superseded")
	ErrSessionClosed = errors.New("session closed")
)
