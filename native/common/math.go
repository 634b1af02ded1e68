package common

import "math/big"

// ClampElapsed bounds the time spent inside an accrual window to [0, duration].
func ClampElapsed(now, start, duration int64) int64 {
	elapsed := now - start
	if elapsed < 0 {
		return 0
	}
	if elapsed > duration {
		return duration
	}
	return elapsed
}

// ProRata computes the portion of total that has vested after elapsed seconds
// of a duration-second window. Division truncates toward zero, so the
// undistributed remainder stays with the total until the window completes; a
// fully elapsed window returns total exactly, never the truncated quotient.
func ProRata(total *big.Int, elapsed, duration int64) *big.Int {
	if total == nil || total.Sign() <= 0 || duration <= 0 || elapsed <= 0 {
		return big.NewInt(0)
	}
	if elapsed >= duration {
		return new(big.Int).Set(total)
	}
	out := new(big.Int).Mul(total, big.NewInt(elapsed))
	return out.Quo(out, big.NewInt(duration))
}

// PositiveAmount reports whether v is a usable, strictly positive amount.
func PositiveAmount(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

// SameAmount reports whether two amounts are both set and numerically equal.
// The supplied deposit must match the committed amount exactly at creation.
func SameAmount(a, b *big.Int) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Cmp(b) == 0
}

// ZeroAddress reports whether addr is the void identity, which is never a
// valid counterparty.
func ZeroAddress(addr [20]byte) bool {
	return addr == [20]byte{}
}
