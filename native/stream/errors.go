package stream

import "errors"

var (
	ErrNotFound          = errors.New("stream: not found")
	ErrInvalidRecipient  = errors.New("stream: invalid recipient")
	ErrInvalidSender     = errors.New("stream: invalid sender")
	ErrInvalidAmount     = errors.New("stream: amount must be positive and match supplied value")
	ErrInvalidDuration   = errors.New("stream: duration must be positive")
	ErrUnauthorized      = errors.New("stream: unauthorized")
	ErrInactive          = errors.New("stream: inactive")
	ErrNothingToWithdraw = errors.New("stream: nothing to withdraw")
	ErrInsufficientFunds = errors.New("stream: insufficient funds")
	ErrTransferFailed    = errors.New("stream: transfer failed")
)
