package wire

import "math/big"

// Int128 is a signed 128-bit integer stored as two's complement words.
type Int128 struct {
	Lo uint64
	Hi uint64
}

var (
	two64  = new(big.Int).Lsh(big.NewInt(1), 64)
	two128 = new(big.Int).Lsh(big.NewInt(1), 128)
)

func (v Int128) IsNegative() bool {
	return v.Hi>>63 == 1
}

func (v Int128) Sign() int {
	switch {
	case v.IsNegative():
		return -1
	case v.Lo == 0 && v.Hi == 0:
		return 0
	default:
		return 1
	}
}

// Big returns the value as a *big.Int, with the sign applied.
func (v Int128) Big() *big.Int {
	out := new(big.Int).SetUint64(v.Hi)
	out.Mul(out, two64)
	out.Add(out, new(big.Int).SetUint64(v.Lo))
	if v.IsNegative() {
		out.Sub(out, two128)
	}
	return out
}

func (v Int128) String() string {
	return v.Big().String()
}

// Int128FromBig converts x, failing with ErrEncodeRange when x needs more than 128 bits.
func Int128FromBig(x *big.Int) (Int128, error) {
	if x == nil || x.Cmp(minI128) < 0 || x.Cmp(maxI128) > 0 {
		return Int128{}, &RangeError{Type: "i128", Value: bigString(x)}
	}
	u := new(big.Int).Set(x)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	lo := new(big.Int).And(u, maxU64).Uint64()
	hi := new(big.Int).Rsh(u, 64).Uint64()
	return Int128{Lo: lo, Hi: hi}, nil
}

func bigString(x *big.Int) string {
	if x == nil {
		return "<nil>"
	}
	return x.String()
}
