// Package apperr holds the error taxonomy shared by the server and the client.
package apperr

import "errors"

var (
	// ErrUnauthenticated: missing, malformed, expired, or revoked credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidRecipient: the target user id is malformed, unknown, or the sender itself.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrEmptyMessage: neither text nor media present.
	ErrEmptyMessage = errors.New("cannot send empty message")
	// ErrMediaUpload: the media store failed; no message is created.
	ErrMediaUpload = errors.New("media upload failed")
	// ErrUnsupportedMedia: attachment is not an image or a video.
	ErrUnsupportedMedia = errors.New("unsupported media type")

	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already used")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
