package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"streamvault/core/state"
	"streamvault/core/types"
	"streamvault/crypto"
	"streamvault/native/escrow"
	"streamvault/native/stream"
	"streamvault/storage"
)

const testToken = "test-token"

type testHarness struct {
	server  *httptest.Server
	manager *state.Manager
	streams *stream.Engine
	escrows *escrow.Engine
	now     int64
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	h := &testHarness{manager: manager, now: 1_000}

	h.streams = stream.NewEngine()
	h.streams.SetState(manager)
	h.streams.SetNowFunc(func() int64 { return h.now })

	h.escrows = escrow.NewEngine()
	h.escrows.SetState(manager)
	h.escrows.SetNowFunc(func() int64 { return h.now })

	srv := NewServer(h.streams, h.escrows, nil)
	srv.SetAuthToken(testToken)
	h.server = httptest.NewServer(srv.Router())
	t.Cleanup(h.server.Close)
	return h
}

func (h *testHarness) fund(t *testing.T, addr [20]byte, amount int64) {
	t.Helper()
	require.NoError(t, h.manager.PutAccount(addr[:], &types.Account{Balance: big.NewInt(amount)}))
}

func testAddr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func bech(addr [20]byte) string {
	return crypto.NewAddress(crypto.VaultPrefix, addr[:]).String()
}

func (h *testHarness) call(t *testing.T, method string, params interface{}, token string) (*http.Response, Response) {
	t.Helper()
	rawParams, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(Request{
		JSONRPC: jsonRPCVersion,
		ID:      json.RawMessage(`1`),
		Method:  method,
		Params:  rawParams,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func resultInto(t *testing.T, decoded Response, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(decoded.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestMutationsRequireBearerToken(t *testing.T) {
	h := newHarness(t)
	payer := testAddr(0x01)
	h.fund(t, payer, 500)

	params := map[string]interface{}{
		"caller":   bech(payer),
		"payee":    bech(testAddr(0x02)),
		"amount":   "500",
		"supplied": "500",
		"deadline": 2_000,
	}
	resp, decoded := h.call(t, "escrow_create", params, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, decoded.Error)

	resp, decoded = h.call(t, "escrow_create", params, "wrong-token")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, decoded.Error)

	resp, _ = h.call(t, "escrow_create", params, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEscrowLifecycleOverRPC(t *testing.T) {
	h := newHarness(t)
	payer := testAddr(0x01)
	payee := testAddr(0x02)
	h.fund(t, payer, 500)

	resp, decoded := h.call(t, "escrow_create", map[string]interface{}{
		"caller":   bech(payer),
		"payee":    bech(payee),
		"amount":   "500",
		"supplied": "500",
		"deadline": 1_010,
	}, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created CreateResult
	resultInto(t, decoded, &created)
	require.Equal(t, uint64(1), created.ID)

	// Refund before the deadline is a retryable rejection.
	resp, decoded = h.call(t, "escrow_refund", map[string]interface{}{
		"id": created.ID, "caller": bech(payer),
	}, testToken)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "deadline not passed", decoded.Error.Message)

	resp, decoded = h.call(t, "escrow_release", map[string]interface{}{
		"id": created.ID, "caller": bech(payer),
	}, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var settled SettleResult
	resultInto(t, decoded, &settled)
	require.Equal(t, "released", settled.Outcome)

	resp, decoded = h.call(t, "escrow_get", map[string]interface{}{"id": created.ID}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var record EscrowResult
	resultInto(t, decoded, &record)
	require.Equal(t, "released", record.Status)
	require.Equal(t, "500", record.Amount)

	// Terminal state is permanent, even after the deadline.
	h.now = 2_000
	resp, decoded = h.call(t, "escrow_refund", map[string]interface{}{
		"id": created.ID, "caller": bech(payer),
	}, testToken)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "already settled", decoded.Error.Message)
}

func TestStreamLifecycleOverRPC(t *testing.T) {
	h := newHarness(t)
	sender := testAddr(0x01)
	recipient := testAddr(0x02)
	h.fund(t, sender, 1_000)

	resp, decoded := h.call(t, "stream_create", map[string]interface{}{
		"caller":    bech(sender),
		"recipient": bech(recipient),
		"amount":    "1000",
		"supplied":  "1000",
		"duration":  100,
	}, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created CreateResult
	resultInto(t, decoded, &created)
	require.Equal(t, uint64(1), created.ID)

	h.now = 1_040
	resp, decoded = h.call(t, "stream_accrued", map[string]interface{}{"id": created.ID}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accrued AccruedResult
	resultInto(t, decoded, &accrued)
	require.Equal(t, "400", accrued.Accrued)

	resp, decoded = h.call(t, "stream_withdraw", map[string]interface{}{
		"id": created.ID, "caller": bech(recipient),
	}, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var withdrawn WithdrawResult
	resultInto(t, decoded, &withdrawn)
	require.Equal(t, "400", withdrawn.Withdrawn)

	// Immediately repeating the withdrawal is a retryable rejection.
	resp, decoded = h.call(t, "stream_withdraw", map[string]interface{}{
		"id": created.ID, "caller": bech(recipient),
	}, testToken)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "nothing to withdraw", decoded.Error.Message)

	resp, decoded = h.call(t, "stream_cancel", map[string]interface{}{
		"id": created.ID, "caller": bech(sender),
	}, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled CancelResult
	resultInto(t, decoded, &cancelled)
	require.Equal(t, "0", cancelled.Paid)
	require.Equal(t, "600", cancelled.Refunded)

	resp, decoded = h.call(t, "stream_get", map[string]interface{}{"id": created.ID}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var record StreamResult
	resultInto(t, decoded, &record)
	require.False(t, record.Active)
	require.Equal(t, "1000", record.Withdrawn)
}

func TestRPCRejectsUnknownMethodAndBadPayloads(t *testing.T) {
	h := newHarness(t)

	resp, decoded := h.call(t, "stream_burn", map[string]interface{}{}, testToken)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, codeMethodNotFound, decoded.Error.Code)

	resp, decoded = h.call(t, "stream_get", map[string]interface{}{"id": 99}, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "record not found", decoded.Error.Message)

	resp, decoded = h.call(t, "stream_create", map[string]interface{}{
		"caller":    "garbage",
		"recipient": "garbage",
		"amount":    "10",
		"supplied":  "10",
		"duration":  10,
	}, testToken)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, codeInvalidParams, decoded.Error.Code)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
