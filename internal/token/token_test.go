package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec() *Codec {
	return NewCodec("test-secret", time.Hour, 24*time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	c := testCodec()
	now := time.Now()
	p := Payload{UserID: 7, Username: "alice", IsSuperuser: true, LoginTime: now.Unix()}

	raw, expiry, err := c.Issue(KindAccess, p, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), expiry, time.Second)

	got, err := c.VerifyAt(raw, KindAccess, now)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	c := testCodec()
	now := time.Now()

	raw, _, err := c.Issue(KindRefresh, Payload{UserID: 1}, now)
	require.NoError(t, err)

	_, err = c.VerifyAt(raw, KindAccess, now)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestVerifyRejectsExpired(t *testing.T) {
	c := testCodec()
	now := time.Now()

	raw, _, err := c.Issue(KindAccess, Payload{UserID: 1}, now)
	require.NoError(t, err)

	_, err = c.VerifyAt(raw, KindAccess, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyKindCheckedBeforeExpiry(t *testing.T) {
	c := testCodec()
	now := time.Now()

	// An expired refresh token presented as an access token reports the
	// kind mismatch, not the expiry.
	raw, _, err := c.Issue(KindRefresh, Payload{UserID: 1}, now.Add(-48*time.Hour))
	require.NoError(t, err)

	_, err = c.VerifyAt(raw, KindAccess, now)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	now := time.Now()
	raw, _, err := NewCodec("other-secret", time.Hour, time.Hour).
		Issue(KindAccess, Payload{UserID: 1}, now)
	require.NoError(t, err)

	_, err = testCodec().VerifyAt(raw, KindAccess, now)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = testCodec().VerifyAt("not-a-token", KindAccess, now)
	assert.ErrorIs(t, err, ErrInvalid)
}
