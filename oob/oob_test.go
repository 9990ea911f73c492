package oob

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/sliceops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	local = btsec.MustParseAddr("00:11:22:33:44:55")
	class = btsec.DevClass{0x5a, 0x02, 0x0c}
	hashC = [16]byte{0xc0, 0xc1, 0xc2, 0xc3, 0xc4, 0xc5, 0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xcb, 0xcc, 0xcd, 0xce, 0xcf}
	randR = [16]byte{0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79, 0x7a, 0x7b, 0x7c, 0x7d, 0x7e, 0x7f}
)

func TestBuild(t *testing.T) {
	b, err := Build(MaxLength, local, HashC(hashC), RandR(randR), Class(class), Name("Kiosk", 32))
	require.NoError(t, err)

	want := []byte{0, 0, 0x55, 0x44, 0x33, 0x22, 0x11, 0x00}
	want = append(want, 17, TypeHashC)
	want = append(want, hashC[:]...)
	want = append(want, 17, TypeRandR)
	want = append(want, randR[:]...)
	want = append(want, 4, TypeClass, 0x0c, 0x02, 0x5a)
	want = append(want, 6, TypeCompleteName, 'K', 'i', 'o', 's', 'k')
	want[0] = byte(len(want))
	assert.Equal(t, want, b)
}

func TestBuildSkipsWhatDoesNotFit(t *testing.T) {
	// room for C and the class, not for R
	max := MandatorySize + 18 + 5 + 4
	b, err := Build(max, local, HashC(hashC), RandR(randR), Class(class))
	require.NoError(t, err)
	assert.Equal(t, MandatorySize+18+5, len(b))

	d, err := Parse(b)
	require.NoError(t, err)
	assert.True(t, d.HasC)
	assert.False(t, d.HasR)
	assert.True(t, d.HasClass)

	_, err = Build(MandatorySize-1, local)
	assert.Equal(t, ErrNotFit, errors.Cause(err))
}

func TestNameField(t *testing.T) {
	tests := []struct {
		maxLen   int
		name     string
		complete bool
		present  bool
	}{
		{0, "", false, false},
		{4, "Kios", false, true},
		{5, "Kiosk", false, true},
		{6, "Kiosk", true, true},
	}
	for _, tt := range tests {
		b, err := Build(MaxLength, local, Name("Kiosk", tt.maxLen))
		require.NoError(t, err)
		d, err := Parse(b)
		require.NoError(t, err)
		assert.Equal(t, tt.name, d.Name, "max %d", tt.maxLen)
		assert.Equal(t, tt.complete, d.NameComplete, "max %d", tt.maxLen)

		_, ok := Lookup(b, TypeShortName)
		_, okc := Lookup(b, TypeCompleteName)
		assert.Equal(t, tt.present, ok || okc, "max %d", tt.maxLen)
	}
}

func TestParse(t *testing.T) {
	b, err := Build(MaxLength, local, HashC(hashC), RandR(randR), Class(class), Name("Kiosk", 3))
	require.NoError(t, err)

	// trailing bytes past the length field are ignored
	b = append(b, 0xde, 0xad)

	d, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, &Data{
		Addr:     local,
		C:        hashC,
		R:        randR,
		HasC:     true,
		HasR:     true,
		Class:    class,
		HasClass: true,
		Name:     "Kio",
	}, d)

	a, ok := Lookup(b, TypeAddr)
	require.True(t, ok)
	w := local.Wire()
	assert.Equal(t, w[:], a)

	r, ok := Lookup(b, TypeRandR)
	require.True(t, ok)
	assert.Equal(t, randR[:], r)

	_, ok = Lookup(b, 0x42)
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	good, err := Build(MaxLength, local, HashC(hashC))
	require.NoError(t, err)

	tests := []struct {
		name string
		b    []byte
		want error
	}{
		{"short", []byte{8, 0, 1}, ErrTooShort},
		{"length field", []byte{4, 0, 1, 2, 3, 4, 5, 6}, ErrTooShort},
		{"truncated", good[:len(good)-1], ErrTruncated},
		{"structure overrun", []byte{11, 0, 1, 2, 3, 4, 5, 6, 5, TypeClass, 1}, ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.b)
			assert.Equal(t, tt.want, errors.Cause(err), "got %v", err)
		})
	}

	// a hash of the wrong size
	bad := []byte{12, 0, 1, 2, 3, 4, 5, 6, 3, TypeHashC, 1, 2}
	_, err = Parse(bad)
	assert.Error(t, err)
}

// [Vol 3, Part H, D.2]
func TestF4(t *testing.T) {
	le := func(s string) []byte {
		b, err := hex.DecodeString(s)
		require.NoError(t, err)
		return sliceops.SwapBuf(b)
	}
	u := le("20b003d2f297be2c5e2c83a7e9f9a5b9eff49111acf4fddbcc0301480e359de6")
	v := le("55188b3d32f6bb9a900afcfbeed4e72a59cb9ac2f19d7cfb6b4fdd49f47fc5fd")
	x := le("d5cb8454d177733effffb2ec712baeab")

	out, err := f4(u, v, x, 0)
	require.NoError(t, err)
	assert.Equal(t, le("f2c916f107a9bd1cf1eda1bea974872d"), out)

	_, err = f4(u[:31], v, x, 0)
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	l, err := Generate(nil)
	require.NoError(t, err)
	assert.Len(t, l.PublicKeyX(), 32)

	ok, err := Check(l.PublicKeyX(), l.C, l.R)
	require.NoError(t, err)
	assert.True(t, ok)

	c := l.C
	c[0] ^= 1
	ok, err = Check(l.PublicKeyX(), c, l.R)
	require.NoError(t, err)
	assert.False(t, ok)

	l2, err := Generate(nil)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(l.R[:], l2.R[:]))
}
