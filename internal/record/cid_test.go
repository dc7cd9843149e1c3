package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIDStringAndParseRoundTrip(t *testing.T) {
	c := CID(0xdeadbeefcafe)
	s := c.String()
	assert.Len(t, s, 16)

	parsed, err := ParseCID(s)
	require.NoError(t, err)
	assert.Equal(t, c, parsed)
}

func TestNilCID(t *testing.T) {
	assert.True(t, NilCID.IsNil())
	assert.Equal(t, "NIL", NilCID.String())

	parsed, err := ParseCID("NIL")
	require.NoError(t, err)
	assert.Equal(t, NilCID, parsed)

	parsed, err = ParseCID("nil")
	require.NoError(t, err)
	assert.Equal(t, NilCID, parsed)
}

func TestParseCIDRejectsGarbage(t *testing.T) {
	_, err := ParseCID("not-hex")
	assert.ErrorIs(t, err, ErrBadFormat)
}

func FuzzCIDRoundTrip(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(1))
	f.Add(^uint64(0))
	f.Fuzz(func(t *testing.T, n uint64) {
		c := CID(n)
		parsed, err := ParseCID(c.String())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	})
}
