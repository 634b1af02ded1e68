package rpc

import "encoding/json"

const jsonRPCVersion = "2.0"

// Request is a single JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Error is the JSON-RPC error object carried on rejections. Message is the
// stable reason string for the taxonomy entry; Data may carry detail.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Response is a single JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeTerminalState  = -32030
	codeNotYet         = -32031
	codeTransferFailed = -32032
	codeModulePaused   = -32033
)

// StreamResult is the wire representation of a stream record.
type StreamResult struct {
	ID          uint64 `json:"id"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	TotalAmount string `json:"totalAmount"`
	StartTime   int64  `json:"startTime"`
	Duration    int64  `json:"duration"`
	EndTime     int64  `json:"endTime"`
	Withdrawn   string `json:"withdrawn"`
	Active      bool   `json:"active"`
}

// EscrowResult is the wire representation of an escrow record.
type EscrowResult struct {
	ID        uint64 `json:"id"`
	Payer     string `json:"payer"`
	Payee     string `json:"payee"`
	Amount    string `json:"amount"`
	Deadline  int64  `json:"deadline"`
	CreatedAt int64  `json:"createdAt"`
	Status    string `json:"status"`
}

// CreateResult reports the id allocated by a create operation.
type CreateResult struct {
	ID uint64 `json:"id"`
}

// AccruedResult reports the withdrawable slice of a stream.
type AccruedResult struct {
	ID      uint64 `json:"id"`
	Accrued string `json:"accrued"`
}

// WithdrawResult reports the amount settled by a withdrawal.
type WithdrawResult struct {
	ID        uint64 `json:"id"`
	Withdrawn string `json:"withdrawn"`
}

// CancelResult reports the two-way split performed by a cancellation.
type CancelResult struct {
	ID       uint64 `json:"id"`
	Paid     string `json:"paid"`
	Refunded string `json:"refunded"`
}

// SettleResult reports the terminal outcome of an escrow settlement.
type SettleResult struct {
	ID      uint64 `json:"id"`
	Outcome string `json:"outcome"`
}
