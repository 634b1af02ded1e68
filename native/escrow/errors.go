package escrow

import "errors"

var (
	ErrNotFound          = errors.New("escrow: not found")
	ErrInvalidPayee      = errors.New("escrow: invalid payee")
	ErrInvalidPayer      = errors.New("escrow: invalid payer")
	ErrInvalidAmount     = errors.New("escrow: amount must be positive and match supplied value")
	ErrInvalidDeadline   = errors.New("escrow: deadline must be in the future")
	ErrUnauthorized      = errors.New("escrow: unauthorized")
	ErrAlreadySettled    = errors.New("escrow: already settled")
	ErrDeadlineNotPassed = errors.New("escrow: deadline not passed")
	ErrInsufficientFunds = errors.New("escrow: insufficient funds")
	ErrTransferFailed    = errors.New("escrow: transfer failed")
)
