package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "unit-test-signing-key"

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("user-1", "member", "tendx", testKey, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExp.After(pair.AccessExp))

	claims, err := Parse(pair.AccessToken, testKey, "tendx")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("user-1", "member", "tendx", testKey, time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "some-other-key", "tendx")
	assert.Error(t, err)
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	pair, err := Issue("user-1", "member", "someone-else", testKey, time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, testKey, "tendx")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	pair, err := Issue("user-1", "member", "tendx", testKey, -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, testKey, "tendx")
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not.a.token", testKey, "tendx")
	assert.Error(t, err)
}
