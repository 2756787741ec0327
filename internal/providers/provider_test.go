package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePRURL(t *testing.T) {
	ref, err := ParsePRURL("https://github.com/acme/widgets/pull/482")
	require.NoError(t, err)
	assert.Equal(t, "acme", ref.Owner)
	assert.Equal(t, "widgets", ref.Repo)
	assert.Equal(t, 482, ref.Number)
	assert.Equal(t, "acme/widgets#482", ref.String())
}

func TestParsePRURLTrailingSegments(t *testing.T) {
	ref, err := ParsePRURL("https://github.com/acme/widgets/pull/7/files")
	require.NoError(t, err)
	assert.Equal(t, 7, ref.Number)
}

func TestParsePRURLRejectsNonPR(t *testing.T) {
	cases := []string{
		"https://github.com/acme/widgets",
		"https://github.com/acme/widgets/issues/12",
		"https://github.com/acme/widgets/pull/notanumber",
		"not a url at all \x7f://",
	}
	for _, raw := range cases {
		_, err := ParsePRURL(raw)
		assert.Error(t, err, raw)
	}
}
