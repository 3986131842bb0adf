package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyRoundTrip(t *testing.T) {
	passwords := []string{"", "hunter2", "correct horse battery staple", "päßwörd"}

	for _, p := range passwords {
		assert.True(t, Verify(p, Hash(p)), "Verify(%q, Hash(%q)) should be true", p, p)
	}
}

func TestVerifyMismatch(t *testing.T) {
	assert.False(t, Verify("hunter2", Hash("hunter3")))
	assert.False(t, Verify("hunter2", ""))
	assert.False(t, Verify("", Hash("hunter2")))
}

func TestHashIsStable(t *testing.T) {
	// Known SHA-256 vector.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Hash(""))
	assert.Equal(t, Hash("abc"), Hash("abc"))
}
