package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"streamvault/crypto"
	"streamvault/native/stream"
	"streamvault/observability/metrics"
)

type streamCreateParams struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Duration  int64  `json:"duration"`
	Supplied  string `json:"supplied"`
}

type streamCallParams struct {
	ID     uint64 `json:"id"`
	Caller string `json:"caller"`
}

type streamQueryParams struct {
	ID uint64 `json:"id"`
}

func parseAddress(field, value string) ([20]byte, *Error) {
	var out [20]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, &Error{Code: codeInvalidParams, Message: fmt.Sprintf("%s is required", field)}
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, &Error{Code: codeInvalidParams, Message: fmt.Sprintf("invalid %s address", field), Data: err.Error()}
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func parseAmount(field, value string) (*big.Int, *Error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, &Error{Code: codeInvalidParams, Message: fmt.Sprintf("%s is required", field)}
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, &Error{Code: codeInvalidParams, Message: fmt.Sprintf("%s must be a non-negative decimal amount", field)}
	}
	return amount, nil
}

func amountToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

func formatStream(s *stream.Stream) *StreamResult {
	if s == nil {
		return nil
	}
	return &StreamResult{
		ID:          s.ID,
		Sender:      crypto.NewAddress(crypto.VaultPrefix, s.Sender[:]).String(),
		Recipient:   crypto.NewAddress(crypto.VaultPrefix, s.Recipient[:]).String(),
		TotalAmount: s.TotalAmount.String(),
		StartTime:   s.StartTime,
		Duration:    s.Duration,
		EndTime:     s.EndTime(),
		Withdrawn:   s.Withdrawn.String(),
		Active:      s.Active,
	}
}

func (s *Server) streamCreate(raw json.RawMessage) (interface{}, *Error) {
	var params streamCreateParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient, rpcErr := parseAddress("recipient", params.Recipient)
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
	created, err := s.streams.Create(caller, recipient, amount, params.Duration, supplied)
	if err != nil {
		return nil, errorFor(err)
	}
	return &CreateResult{ID: created.ID}, nil
}

func (s *Server) streamGet(raw json.RawMessage) (interface{}, *Error) {
	var params streamQueryParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	record, err := s.streams.Get(params.ID)
	if err != nil {
		return nil, errorFor(err)
	}
	return formatStream(record), nil
}

func (s *Server) streamAccrued(raw json.RawMessage) (interface{}, *Error) {
	var params streamQueryParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	accrued, err := s.streams.CurrentAccrued(params.ID)
	if err != nil {
		return nil, errorFor(err)
	}
	return &AccruedResult{ID: params.ID, Accrued: accrued.String()}, nil
}

func (s *Server) streamWithdraw(raw json.RawMessage) (interface{}, *Error) {
	var params streamCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	withdrawn, err := s.streams.Withdraw(params.ID, caller)
	if err != nil {
		return nil, errorFor(err)
	}
	metrics.Custody().ObserveSettledValue("stream", "withdraw", amountToFloat(withdrawn))
	return &WithdrawResult{ID: params.ID, Withdrawn: withdrawn.String()}, nil
}

func (s *Server) streamCancel(raw json.RawMessage) (interface{}, *Error) {
	var params streamCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	paid, refunded, err := s.streams.Cancel(params.ID, caller)
	if err != nil {
		return nil, errorFor(err)
	}
	metrics.Custody().ObserveSettledValue("stream", "cancel_paid", amountToFloat(paid))
	metrics.Custody().ObserveSettledValue("stream", "cancel_refund", amountToFloat(refunded))
	return &CancelResult{ID: params.ID, Paid: paid.String(), Refunded: refunded.String()}, nil
}
