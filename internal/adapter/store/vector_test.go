package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorToStringFormat(t *testing.T) {
	assert.Equal(t, "[0.5,-1,0]", vectorToString([]float32{0.5, -1, 0}))
	assert.Equal(t, "[]", vectorToString(nil))
}

func TestParseVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -3.5, 0, 1536.125}
	out, err := parseVector(vectorToString(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseVectorMalformed(t *testing.T) {
	for _, s := range []string{"", "0.1,0.2", "[0.1,nope]", "{0.1}"} {
		_, err := parseVector(s)
		assert.Error(t, err, "input %q", s)
	}
}
