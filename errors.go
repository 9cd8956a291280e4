package fortress

import "errors"

// Failures that tear the session down and schedule a reconnect.
var (
	ErrConnect           = errors.New("connect failure")
	ErrTransmit          = errors.New("transmit failure")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrLivenessTimeout   = errors.New("liveness timeout")
)

// ErrInterrupted is used when the host stops the client. It tears the session
// down without rescheduling.
var ErrInterrupted = errors.New("user interrupt")

var (
	ErrNotConnected      = errors.New("not connected")
	ErrAlreadyStarted    = errors.New("client already started")
	ErrInvalidTransition = errors.New("invalid state transition")
)
