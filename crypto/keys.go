package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix is the human-readable part of a bech32 encoded address.
type AddressPrefix string

// VaultPrefix tags the custody vault and participant addresses managed by the
// ledger.
const VaultPrefix AddressPrefix = "svt"

// AddressLength is the raw byte length of every ledger address.
const AddressLength = 20

// Address wraps a 20-byte account identifier together with its display prefix.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// NewAddress builds an address from raw bytes. The byte slice must be exactly
// AddressLength long.
func NewAddress(prefix AddressPrefix, b []byte) Address {
	if len(b) != AddressLength {
		panic("address must be 20 bytes long")
	}
	return Address{prefix: prefix, bytes: b}
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

func (a Address) Bytes() []byte {
	return a.bytes
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// DecodeAddress parses a bech32 string back into an Address, validating both
// the checksum and the payload length.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address payload: %w", err)
	}
	if len(conv) != AddressLength {
		return Address{}, fmt.Errorf("address payload must be %d bytes, got %d", AddressLength, len(conv))
	}
	return Address{prefix: AddressPrefix(prefix), bytes: conv}, nil
}

// GeneratePrivateKey produces a fresh secp256k1 key for local tooling and
// tests.
func GeneratePrivateKey() (*ecdsa.PrivateKey, error) {
	return ethcrypto.GenerateKey()
}

// PubKeyToAddress derives the ledger address for a public key using the
// trailing 20 bytes of its keccak256 hash.
func PubKeyToAddress(pub ecdsa.PublicKey) Address {
	raw := ethcrypto.PubkeyToAddress(pub)
	return NewAddress(VaultPrefix, raw.Bytes())
}

// ModuleAddress derives a deterministic address owned by a ledger module. The
// name is hashed so module vaults can never collide with key-derived accounts
// in practice.
func ModuleAddress(name string) [AddressLength]byte {
	sum := ethcrypto.Keccak256([]byte("streamvault/module/" + name))
	var out [AddressLength]byte
	copy(out[:], sum[len(sum)-AddressLength:])
	return out
}

// MustDecodeAddress20 parses a bech32 address into a fixed-size array,
// panicking on malformed input. Intended for wiring code with constant inputs.
func MustDecodeAddress20(addrStr string) [AddressLength]byte {
	addr, err := DecodeAddress(addrStr)
	if err != nil {
		panic(err)
	}
	var out [AddressLength]byte
	copy(out[:], addr.Bytes())
	return out
}
