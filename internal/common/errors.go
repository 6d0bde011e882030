package common

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the transport layer
var (
	// General errors
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")

	// Voting / poll refusals
	ErrAlreadyVoted    = errors.New("already voted")
	ErrAlreadyClosed   = errors.New("poll already closed")
	ErrSelfVote        = errors.New("cannot vote against yourself")
	ErrProtectedTarget = errors.New("target is protected")

	// Cipher errors
	ErrEncryption = errors.New("encryption failed")
	ErrDecryption = errors.New("decryption failed")
)

// Specific errors, each wrapping one of the kinds above
var (
	ErrMemberNotFound = fmt.Errorf("member: %w", ErrNotFound)
	ErrPollNotFound   = fmt.Errorf("poll: %w", ErrNotFound)

	ErrPollClosed    = fmt.Errorf("poll is closed: %w", ErrInvalidInput)
	ErrInvalidOption = fmt.Errorf("option index out of range: %w", ErrInvalidInput)
	ErrInvalidNick   = fmt.Errorf("nick must be 1-50 letters, digits, spaces, '_' or '-': %w", ErrInvalidInput)
	ErrTextTooLong   = fmt.Errorf("text too long: %w", ErrInvalidInput)
	ErrNotBanned     = fmt.Errorf("member is not banned: %w", ErrInvalidInput)

	ErrNotActive     = fmt.Errorf("member is not in chat: %w", ErrInvalidState)
	ErrAlreadyActive = fmt.Errorf("member is already in chat: %w", ErrInvalidState)
	ErrNotBaseRole   = fmt.Errorf("member does not have the base role: %w", ErrInvalidState)

	ErrBanned     = fmt.Errorf("member is banned: %w", ErrForbidden)
	ErrMuted      = fmt.Errorf("member is muted: %w", ErrForbidden)
	ErrNickFrozen = fmt.Errorf("nick is frozen: %w", ErrForbidden)
)

// Invalid wraps ErrInvalidInput with a reason
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}
