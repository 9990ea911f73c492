package sliceops

// SwapBuf returns a reversed copy of in. HCI and the security toolbox
// functions disagree on byte order, this converts between the two.
func SwapBuf(in []byte) []byte {
	a := make([]byte, 0, len(in))
	a = append(a, in...)
	for i := len(a)/2 - 1; i >= 0; i-- {
		opp := len(a) - 1 - i
		a[i], a[opp] = a[opp], a[i]
	}

	return a
}

// Swap16 is SwapBuf for fixed 128 bit values (keys, hashes, randomizers).
func Swap16(in [16]byte) [16]byte {
	var out [16]byte
	copy(out[:], SwapBuf(in[:]))
	return out
}
