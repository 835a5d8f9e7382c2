package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("resource not found")
)

// User service specific errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
)

// Queue service specific errors
var (
	ErrUnknownQueueType  = errors.New("unknown queue type")
	ErrQueuesDisabled    = errors.New("queues are disabled")
	ErrNotEligible       = errors.New("rating not eligible for queue")
	ErrAlreadyQueued     = errors.New("player already in a queue")
	ErrAlreadyInMatch    = errors.New("player already in an active match")
	ErrNoPendingAccept   = errors.New("no pending match to accept")
	ErrHandshakeExpired  = errors.New("accept deadline has passed")
)

// Match service specific errors
var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchFull             = errors.New("match is full")
	ErrMatchNotPending       = errors.New("match is not pending")
	ErrMatchAlreadyResolved  = errors.New("match already finished or cancelled")
	ErrNotParticipant        = errors.New("player is not a participant")
	ErrAlreadyParticipant    = errors.New("player already in this match")
	ErrNotMatchCreator       = errors.New("only the match creator may do this")
	ErrCustomMatchesDisabled = errors.New("custom matches are disabled")
	ErrInvalidWinner         = errors.New("winner team must be red or blue")
	ErrCreatorCannotLeave    = errors.New("creator must cancel instead of leaving")
)
