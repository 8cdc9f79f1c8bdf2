package wire

import "math/big"

// EncodeTwosComplement returns the minimal two's-complement big-endian
// byte representation of n, with an extra leading zero byte inserted
// whenever the natural magnitude's high bit would otherwise be
// misread as a sign bit. Zero encodes as a single zero byte.
func EncodeTwosComplement(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0}
	}

	if n.Sign() > 0 {
		b := n.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}

		return b
	}

	bitLen := new(big.Int).Not(n).BitLen() // Not(n) == -n-1
	byteLen := bitLen/8 + 1

	mod := new(big.Int).Lsh(big.NewInt(1), uint(byteLen*8))
	tc := new(big.Int).Add(mod, n)
	b := tc.Bytes()

	for len(b) < byteLen {
		b = append([]byte{0}, b...)
	}

	return b
}

// DecodeTwosComplement is the inverse of EncodeTwosComplement.
func DecodeTwosComplement(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}

	if b[0]&0x80 == 0 {
		return new(big.Int).SetBytes(b)
	}

	mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
	mag := new(big.Int).SetBytes(b)

	return mag.Sub(mag, mod)
}
