package events

import (
	"math/big"
	"testing"

	"streamvault/crypto"
)

func testAddr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestStreamCancelledAttributes(t *testing.T) {
	sender := testAddr(0x01)
	recipient := testAddr(0x02)
	evt := StreamCancelled{
		ID:        3,
		Sender:    sender,
		Recipient: recipient,
		Paid:      big.NewInt(250),
		Refunded:  big.NewInt(750),
	}
	if evt.EventType() != TypeStreamCancelled {
		t.Fatalf("unexpected event type %s", evt.EventType())
	}
	payload := evt.Event()
	if payload.Type != TypeStreamCancelled {
		t.Fatalf("unexpected payload type %s", payload.Type)
	}
	if payload.Attributes["id"] != "3" {
		t.Fatalf("unexpected id attribute %q", payload.Attributes["id"])
	}
	if payload.Attributes["paid"] != "250" || payload.Attributes["refunded"] != "750" {
		t.Fatalf("unexpected split attributes: %+v", payload.Attributes)
	}
	wantSender := crypto.NewAddress(crypto.VaultPrefix, sender[:]).String()
	if payload.Attributes["sender"] != wantSender {
		t.Fatalf("expected bech32 sender %q, got %q", wantSender, payload.Attributes["sender"])
	}
}

func TestStreamWithdrawnClosedFlag(t *testing.T) {
	open := StreamWithdrawn{ID: 1, Amount: big.NewInt(400)}
	if _, ok := open.Event().Attributes["closed"]; ok {
		t.Fatalf("closed attribute must be omitted while the stream is live")
	}
	closed := StreamWithdrawn{ID: 1, Amount: big.NewInt(600), Closed: true}
	if closed.Event().Attributes["closed"] != "true" {
		t.Fatalf("expected closed attribute on final withdrawal")
	}
}

func TestEscrowEventAttributes(t *testing.T) {
	created := EscrowCreated{
		ID:        9,
		Payer:     testAddr(0x03),
		Payee:     testAddr(0x04),
		Amount:    big.NewInt(500),
		Deadline:  1_100,
		CreatedAt: 1_000,
	}
	payload := created.Event()
	if payload.Attributes["amount"] != "500" || payload.Attributes["deadline"] != "1100" {
		t.Fatalf("unexpected attributes: %+v", payload.Attributes)
	}

	refunded := EscrowRefunded{ID: 9, Payer: testAddr(0x03), Payee: testAddr(0x04)}
	if refunded.Event().Attributes["amount"] != "0" {
		t.Fatalf("nil amount must format as 0")
	}
}
