package crypto

import (
	"bytes"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x5A}, AddressLength)
	addr := NewAddress(VaultPrefix, raw)

	encoded := addr.String()
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode address: %v", err)
	}
	if decoded.Prefix() != VaultPrefix {
		t.Fatalf("expected prefix %q, got %q", VaultPrefix, decoded.Prefix())
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatalf("payload mismatch: %x != %x", decoded.Bytes(), raw)
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-a-bech32-address"); err == nil {
		t.Fatalf("expected decode failure")
	}
	if _, err := DecodeAddress(""); err == nil {
		t.Fatalf("expected decode failure for empty input")
	}
}

func TestKeyDerivedAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := PubKeyToAddress(key.PublicKey)
	if len(addr.Bytes()) != AddressLength {
		t.Fatalf("unexpected address length %d", len(addr.Bytes()))
	}
	if _, err := DecodeAddress(addr.String()); err != nil {
		t.Fatalf("derived address does not round-trip: %v", err)
	}
}

func TestModuleAddressDeterministic(t *testing.T) {
	first := ModuleAddress("stream-vault")
	second := ModuleAddress("stream-vault")
	if first != second {
		t.Fatalf("module address not deterministic")
	}
	if first == ModuleAddress("escrow-vault") {
		t.Fatalf("distinct module names must yield distinct addresses")
	}
	if first == ([AddressLength]byte{}) {
		t.Fatalf("module address must not be the void identity")
	}
}
