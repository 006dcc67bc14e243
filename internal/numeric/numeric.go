// Package numeric provides the ordered-ring value types that instantiate the
// Domain (D) and Ratio (R) type parameters used by internal/negcycle and
// internal/parametric.
//
// Go's built-in arithmetic operators only work on a fixed set of underlying
// kinds, which is not enough to cover the three instantiations the
// cycle-ratio algorithms require: plain signed integers, floating point, and
// arbitrary-precision rationals (math/big.Rat). Instead of constraining D and
// R to `~int64 | ~float64` and leaving exact rational arithmetic out in the
// cold, every value type here implements the same small capability
// interface (Add, Sub, Less, Equal) so the generic core can treat Int64,
// Float64, and Rat uniformly.
package numeric

import "math/big"

// Value is the capability every Domain or Ratio instantiation must provide:
// a totally ordered additive ring element.
type Value[T any] interface {
	Add(T) T
	Sub(T) T
	Less(T) bool
	Equal(T) bool
	// Zero returns the additive identity of this value's type, independent
	// of the receiver (Rat's zero value is not usable, so this cannot be
	// the type's Go zero value).
	Zero() T
}

// Int64 is a Domain/Ratio instantiation backed by a plain signed integer.
type Int64 int64

func (a Int64) Add(b Int64) Int64  { return a + b }
func (a Int64) Sub(b Int64) Int64  { return a - b }
func (a Int64) Less(b Int64) bool  { return a < b }
func (a Int64) Equal(b Int64) bool { return a == b }
func (a Int64) Zero() Int64        { return 0 }

// Float64 is a Domain/Ratio instantiation backed by a 64-bit float.
type Float64 float64

func (a Float64) Add(b Float64) Float64 { return a + b }
func (a Float64) Sub(b Float64) Float64 { return a - b }
func (a Float64) Less(b Float64) bool   { return a < b }
func (a Float64) Equal(b Float64) bool  { return a == b }
func (a Float64) Zero() Float64         { return 0 }

// Rat is a Domain/Ratio instantiation backed by an arbitrary-precision
// rational number. The zero value is not usable; construct with NewRat or
// RatFromInt64.
type Rat struct {
	v *big.Rat
}

// NewRat builds a Rat from a numerator and denominator.
func NewRat(num, den int64) Rat {
	return Rat{v: big.NewRat(num, den)}
}

// RatFromInt64 builds a Rat equal to the given integer.
func RatFromInt64(n int64) Rat {
	return Rat{v: new(big.Rat).SetInt64(n)}
}

// RatFromBig wraps an existing *big.Rat. The Rat takes ownership; callers
// must not mutate v afterwards.
func RatFromBig(v *big.Rat) Rat {
	return Rat{v: v}
}

// RatFromFloat64 builds the exact Rat equal to f's binary floating-point
// value (not a decimal approximation of it), for bridging feeds that only
// carry float64 costs/times into exact solver arithmetic.
func RatFromFloat64(f float64) Rat {
	v := new(big.Rat)
	v.SetFloat64(f)
	return Rat{v: v}
}

// Big returns the underlying *big.Rat (read-only by convention).
func (a Rat) Big() *big.Rat { return a.v }

// Float64 returns the nearest float64 approximation, for logging/metrics.
func (a Rat) Float64() float64 {
	f, _ := a.v.Float64()
	return f
}

func (a Rat) Add(b Rat) Rat {
	return Rat{v: new(big.Rat).Add(a.v, b.v)}
}

func (a Rat) Sub(b Rat) Rat {
	return Rat{v: new(big.Rat).Sub(a.v, b.v)}
}

// Mul returns a*b, exact.
func (a Rat) Mul(b Rat) Rat {
	return Rat{v: new(big.Rat).Mul(a.v, b.v)}
}

// Quo returns a/b, exact. Panics if b is zero, matching big.Rat.Quo.
func (a Rat) Quo(b Rat) Rat {
	return Rat{v: new(big.Rat).Quo(a.v, b.v)}
}

func (a Rat) Less(b Rat) bool {
	return a.v.Cmp(b.v) < 0
}

func (a Rat) Equal(b Rat) bool {
	return a.v.Cmp(b.v) == 0
}

func (a Rat) Zero() Rat {
	return RatFromInt64(0)
}

func (a Rat) String() string {
	return a.v.RatString()
}
