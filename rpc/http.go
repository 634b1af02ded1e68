package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamvault/native/common"
	"streamvault/native/escrow"
	"streamvault/native/stream"
	"streamvault/observability/metrics"
)

const maxRequestBytes = 1 << 20 // 1 MiB

// AuthTokenEnv names the environment variable carrying the bearer token
// required for mutating methods.
const AuthTokenEnv = "STREAMVAULT_RPC_TOKEN"

// Server exposes the custody ledgers over JSON-RPC. The server is the host
// boundary: it authenticates the transport and passes the caller identity
// into the engines as an explicit parameter.
type Server struct {
	streams   *stream.Engine
	escrows   *escrow.Engine
	authToken string
	log       *slog.Logger
}

// NewServer wires the two ledger engines behind a JSON-RPC surface. The
// mutation bearer token is read from the environment.
func NewServer(streams *stream.Engine, escrows *escrow.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		streams:   streams,
		escrows:   escrows,
		authToken: strings.TrimSpace(os.Getenv(AuthTokenEnv)),
		log:       log,
	}
}

// SetAuthToken overrides the mutation bearer token. Intended for tests.
func (s *Server) SetAuthToken(token string) { s.authToken = strings.TrimSpace(token) }

// Router assembles the HTTP surface: the RPC endpoint plus health and
// metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/rpc", s.handle)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start serves the RPC surface on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info("starting JSON-RPC server", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

type handlerFunc func(json.RawMessage) (interface{}, *Error)

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeResponse(w, http.StatusBadRequest, Response{JSONRPC: jsonRPCVersion, Error: &Error{Code: codeParseError, Message: "unable to read request body"}})
		return
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, http.StatusBadRequest, Response{JSONRPC: jsonRPCVersion, Error: &Error{Code: codeParseError, Message: "invalid JSON payload"}})
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		writeResponse(w, http.StatusBadRequest, Response{JSONRPC: jsonRPCVersion, ID: req.ID, Error: &Error{Code: codeInvalidRequest, Message: "invalid JSON-RPC request"}})
		return
	}

	handler, mutating, ok := s.route(req.Method)
	if !ok {
		writeResponse(w, http.StatusNotFound, Response{JSONRPC: jsonRPCVersion, ID: req.ID, Error: &Error{Code: codeMethodNotFound, Message: "method not found"}})
		return
	}
	if mutating {
		if rpcErr := s.checkAuth(r); rpcErr != nil {
			writeResponse(w, http.StatusUnauthorized, Response{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr})
			return
		}
	}

	result, rpcErr := handler(req.Params)
	module, op := methodLabels(req.Method)
	if rpcErr != nil {
		metrics.Custody().ObserveOperation(module, op, "rejected")
		metrics.Custody().ObserveRejection(module, rpcErr.Message)
		s.log.Warn("rpc call rejected", "method", req.Method, "code", rpcErr.Code, "reason", rpcErr.Message)
		writeResponse(w, httpStatusFor(rpcErr.Code), Response{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr})
		return
	}
	metrics.Custody().ObserveOperation(module, op, "ok")
	writeResponse(w, http.StatusOK, Response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result})
}

func (s *Server) route(method string) (handlerFunc, bool, bool) {
	switch method {
	case "stream_create":
		return s.streamCreate, true, true
	case "stream_withdraw":
		return s.streamWithdraw, true, true
	case "stream_cancel":
		return s.streamCancel, true, true
	case "stream_get":
		return s.streamGet, false, true
	case "stream_accrued":
		return s.streamAccrued, false, true
	case "escrow_create":
		return s.escrowCreate, true, true
	case "escrow_release":
		return s.escrowRelease, true, true
	case "escrow_refund":
		return s.escrowRefund, true, true
	case "escrow_get":
		return s.escrowGet, false, true
	default:
		return nil, false, false
	}
}

func (s *Server) checkAuth(r *http.Request) *Error {
	if s.authToken == "" {
		return &Error{Code: codeUnauthorized, Message: "mutations disabled: no auth token configured"}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &Error{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &Error{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func methodLabels(method string) (module, op string) {
	parts := strings.SplitN(method, "_", 2)
	if len(parts) != 2 {
		return method, method
	}
	return parts[0], parts[1]
}

func httpStatusFor(code int) int {
	switch code {
	case codeUnauthorized:
		return http.StatusUnauthorized
	case codeNotFound:
		return http.StatusNotFound
	case codeInvalidParams, codeInvalidRequest:
		return http.StatusBadRequest
	case codeTerminalState, codeNotYet, codeModulePaused:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// errorFor maps a ledger sentinel onto its stable JSON-RPC code and message.
// The message is the taxonomy reason, never a generic failure string, so
// callers can tell retryable conditions from permanent ones.
func errorFor(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stream.ErrNotFound), errors.Is(err, escrow.ErrNotFound):
		return &Error{Code: codeNotFound, Message: "record not found"}
	case errors.Is(err, stream.ErrUnauthorized), errors.Is(err, escrow.ErrUnauthorized):
		return &Error{Code: codeUnauthorized, Message: "unauthorized"}
	case errors.Is(err, stream.ErrInvalidRecipient):
		return &Error{Code: codeInvalidParams, Message: "invalid recipient"}
	case errors.Is(err, stream.ErrInvalidSender), errors.Is(err, escrow.ErrInvalidPayer):
		return &Error{Code: codeInvalidParams, Message: "invalid caller identity"}
	case errors.Is(err, escrow.ErrInvalidPayee):
		return &Error{Code: codeInvalidParams, Message: "invalid payee"}
	case errors.Is(err, stream.ErrInvalidAmount), errors.Is(err, escrow.ErrInvalidAmount):
		return &Error{Code: codeInvalidParams, Message: "invalid amount"}
	case errors.Is(err, stream.ErrInvalidDuration):
		return &Error{Code: codeInvalidParams, Message: "invalid duration"}
	case errors.Is(err, escrow.ErrInvalidDeadline):
		return &Error{Code: codeInvalidParams, Message: "invalid deadline"}
	case errors.Is(err, stream.ErrInactive):
		return &Error{Code: codeTerminalState, Message: "stream inactive"}
	case errors.Is(err, escrow.ErrAlreadySettled):
		return &Error{Code: codeTerminalState, Message: "already settled"}
	case errors.Is(err, stream.ErrNothingToWithdraw):
		return &Error{Code: codeNotYet, Message: "nothing to withdraw"}
	case errors.Is(err, escrow.ErrDeadlineNotPassed):
		return &Error{Code: codeNotYet, Message: "deadline not passed"}
	case errors.Is(err, stream.ErrInsufficientFunds), errors.Is(err, escrow.ErrInsufficientFunds):
		return &Error{Code: codeTransferFailed, Message: "insufficient funds"}
	case errors.Is(err, stream.ErrTransferFailed), errors.Is(err, escrow.ErrTransferFailed):
		return &Error{Code: codeTransferFailed, Message: "transfer failed"}
	case errors.Is(err, common.ErrModulePaused):
		return &Error{Code: codeModulePaused, Message: "module paused"}
	default:
		return &Error{Code: codeServerError, Message: "internal error", Data: err.Error()}
	}
}
