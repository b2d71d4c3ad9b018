package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	TeamID int    `json:"team_id"`
	Group  string `json:"group"`
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint([]row{{1, "A"}, {2, "B"}})
	require.NoError(t, err)
	b, err := Fingerprint([]row{{1, "A"}, {2, "B"}})
	require.NoError(t, err)
	c, err := Fingerprint([]row{{2, "B"}, {1, "A"}})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestFingerprint_Unencodable(t *testing.T) {
	_, err := Fingerprint(make(chan int))
	assert.Error(t, err)
}

func TestDerefString(t *testing.T) {
	s := "x"
	assert.Equal(t, "x", DerefString(&s))
	assert.Equal(t, "", DerefString(nil))
}
