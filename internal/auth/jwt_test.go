package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundTrip(t *testing.T) {
	token, exp, err := Issue(42, "faculty1", "faculty", "qrattend", "test-key", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := Parse(token, "test-key", "qrattend")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "faculty1", claims.Username)
	assert.Equal(t, "faculty", claims.Role)
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue(1, "student1", "student", "qrattend", "key-a", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "key-b", "qrattend")
	assert.Error(t, err)
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	token, _, err := Issue(1, "student1", "student", "other-service", "test-key", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "test-key", "qrattend")
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, _, err := Issue(1, "student1", "student", "qrattend", "test-key", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "test-key", "qrattend")
	assert.Error(t, err)
}
