package common

import (
	"math/big"
	"testing"
)

func TestClampElapsed(t *testing.T) {
	cases := []struct {
		now, start, duration, want int64
	}{
		{0, 10, 100, 0},
		{10, 10, 100, 0},
		{60, 10, 100, 50},
		{110, 10, 100, 100},
		{500, 10, 100, 100},
	}
	for _, tc := range cases {
		if got := ClampElapsed(tc.now, tc.start, tc.duration); got != tc.want {
			t.Fatalf("ClampElapsed(%d,%d,%d): expected %d, got %d", tc.now, tc.start, tc.duration, tc.want, got)
		}
	}
}

func TestProRataTruncates(t *testing.T) {
	total := big.NewInt(1000)
	if got := ProRata(total, 1, 300); got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("expected floor(1000/300)=3, got %s", got)
	}
	if got := ProRata(total, 299, 300); got.Cmp(big.NewInt(996)) != 0 {
		t.Fatalf("expected 996, got %s", got)
	}
}

func TestProRataExactAtCompletion(t *testing.T) {
	// 7 does not divide 100; only the completion rule can release the
	// rounding remainder.
	total := big.NewInt(100)
	if got := ProRata(total, 7, 7); got.Cmp(total) != 0 {
		t.Fatalf("expected full total at completion, got %s", got)
	}
	if got := ProRata(total, 8, 7); got.Cmp(total) != 0 {
		t.Fatalf("expected full total past completion, got %s", got)
	}
}

func TestProRataDegenerateInputs(t *testing.T) {
	if got := ProRata(nil, 5, 10); got.Sign() != 0 {
		t.Fatalf("expected 0 for nil total, got %s", got)
	}
	if got := ProRata(big.NewInt(100), -1, 10); got.Sign() != 0 {
		t.Fatalf("expected 0 for negative elapsed, got %s", got)
	}
	if got := ProRata(big.NewInt(100), 5, 0); got.Sign() != 0 {
		t.Fatalf("expected 0 for zero duration, got %s", got)
	}
}

func TestProRataDoesNotMutateTotal(t *testing.T) {
	total := big.NewInt(1000)
	_ = ProRata(total, 150, 300)
	if total.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("total mutated to %s", total)
	}
}

func TestAmountHelpers(t *testing.T) {
	if PositiveAmount(nil) || PositiveAmount(big.NewInt(0)) || PositiveAmount(big.NewInt(-1)) {
		t.Fatalf("expected non-positive amounts rejected")
	}
	if !PositiveAmount(big.NewInt(1)) {
		t.Fatalf("expected positive amount accepted")
	}
	if SameAmount(nil, big.NewInt(1)) || SameAmount(big.NewInt(1), nil) {
		t.Fatalf("expected nil comparison rejected")
	}
	if !SameAmount(big.NewInt(42), big.NewInt(42)) || SameAmount(big.NewInt(42), big.NewInt(43)) {
		t.Fatalf("unexpected amount equality result")
	}
}

type pauseAll struct{}

func (pauseAll) IsPaused(string) bool { return true }

func TestGuard(t *testing.T) {
	if err := Guard(nil, ModuleStream); err != nil {
		t.Fatalf("nil view must not pause: %v", err)
	}
	if err := Guard(pauseAll{}, ""); err != nil {
		t.Fatalf("empty module must not pause: %v", err)
	}
	if err := Guard(pauseAll{}, ModuleEscrow); err != ErrModulePaused {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
}
