package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSixID_RoundTrip(t *testing.T) {
	id := NewSixID()
	s := id.String()
	assert.Len(t, s, 10)

	parsed, err := ParseSixID(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseSixID_Leniency(t *testing.T) {
	id := NewSixID()
	s := id.String()

	// Hyphens and spaces are stripped before decoding.
	withHyphen := s[:5] + "-" + s[5:]
	parsed, err := ParseSixID(withHyphen)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseSixID_Invalid(t *testing.T) {
	_, err := ParseSixID("too-short")
	assert.Error(t, err)

	_, err = ParseSixID("!!!!!!!!!!")
	assert.Error(t, err)

	// Empty string parses to the zero ID.
	zero, err := ParseSixID("")
	require.NoError(t, err)
	assert.Equal(t, SixID{}, zero)
}

func TestNewSixIDHook(t *testing.T) {
	fixed := SixID{1, 2, 3, 4, 5, 6}
	NewSixIDHook = func() (SixID, bool) { return fixed, true }
	defer func() { NewSixIDHook = nil }()

	assert.Equal(t, fixed, NewSixID())
	assert.Equal(t, fixed.String(), NewID())
}
