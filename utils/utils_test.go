package utils

import (
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURI(t *testing.T) {
	uri := DataURI("image/png", []byte{0x89, 'P', 'N', 'G'})

	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw)
}

func TestIntQuery(t *testing.T) {
	q := url.Values{"limit": {"2"}, "bad": {"two"}}

	assert.Equal(t, 2, IntQuery(q, "limit", 5))
	assert.Equal(t, 5, IntQuery(q, "bad", 5))
	assert.Equal(t, 5, IntQuery(q, "missing", 5))
}
