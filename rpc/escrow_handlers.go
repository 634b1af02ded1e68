package rpc

import (
	"encoding/json"

	"streamvault/crypto"
	"streamvault/native/escrow"
	"streamvault/observability/metrics"
)

type escrowCreateParams struct {
	Caller   string `json:"caller"`
	Payee    string `json:"payee"`
	Amount   string `json:"amount"`
	Deadline int64  `json:"deadline"`
	Supplied string `json:"supplied"`
}

type escrowCallParams struct {
	ID     uint64 `json:"id"`
	Caller string `json:"caller"`
}

type escrowQueryParams struct {
	ID uint64 `json:"id"`
}

func escrowStatusString(e *escrow.Escrow) string {
	switch {
	case e == nil:
		return "unknown"
	case e.Released:
		return "released"
	case e.Refunded:
		return "refunded"
	default:
		return "open"
	}
}

func formatEscrow(e *escrow.Escrow) *EscrowResult {
	if e == nil {
		return nil
	}
	return &EscrowResult{
		ID:        e.ID,
		Payer:     crypto.NewAddress(crypto.VaultPrefix, e.Payer[:]).String(),
		Payee:     crypto.NewAddress(crypto.VaultPrefix, e.Payee[:]).String(),
		Amount:    e.Amount.String(),
		Deadline:  e.Deadline,
		CreatedAt: e.CreatedAt,
		Status:    escrowStatusString(e),
	}
}

func (s *Server) escrowCreate(raw json.RawMessage) (interface{}, *Error) {
	var params escrowCreateParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	payee, rpcErr := parseAddress("payee", params.Payee)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	supplied, rpcErr := parseAmount("supplied", params.Supplied)
	if rpcErr != nil {
		return nil, rpcErr
	}
	created, err := s.escrows.Create(caller, payee, amount, params.Deadline, supplied)
	if err != nil {
		return nil, errorFor(err)
	}
	return &CreateResult{ID: created.ID}, nil
}

func (s *Server) escrowGet(raw json.RawMessage) (interface{}, *Error) {
	var params escrowQueryParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	record, err := s.escrows.Get(params.ID)
	if err != nil {
		return nil, errorFor(err)
	}
	return formatEscrow(record), nil
}

func (s *Server) escrowRelease(raw json.RawMessage) (interface{}, *Error) {
	var params escrowCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.escrows.Release(params.ID, caller); err != nil {
		return nil, errorFor(err)
	}
	if record, err := s.escrows.Get(params.ID); err == nil {
		metrics.Custody().ObserveSettledValue("escrow", "release", amountToFloat(record.Amount))
	}
	return &SettleResult{ID: params.ID, Outcome: "released"}, nil
}

func (s *Server) escrowRefund(raw json.RawMessage) (interface{}, *Error) {
	var params escrowCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.escrows.Refund(params.ID, caller); err != nil {
		return nil, errorFor(err)
	}
	if record, err := s.escrows.Get(params.ID); err == nil {
		metrics.Custody().ObserveSettledValue("escrow", "refund", amountToFloat(record.Amount))
	}
	return &SettleResult{ID: params.ID, Outcome: "refunded"}, nil
}
