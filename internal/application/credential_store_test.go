package application

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/report"
	"github.com/oksasatya/go-identity-service/pkg/helpers"
)

var testKDF = helpers.ScryptParams{LogN: 10, R: 8, P: 1}

type eventLog struct{ events []report.Event }

func (l *eventLog) Report(_ context.Context, ev report.Event) { l.events = append(l.events, ev) }

func TestCredentialStore_SetPasswordAndVerify(t *testing.T) {
	ctx := context.Background()
	c := NewCredentialStore(testKDF, 2, nil, nil)

	u := &entity.User{ID: "u-1"}
	require.NoError(t, c.SetPassword(ctx, u, "correct horse battery staple"))
	require.True(t, u.HasPassword())
	assert.NotContains(t, u.PasswordHash, "correct horse")

	assert.True(t, c.Verify(ctx, u, "correct horse battery staple"))
	assert.False(t, c.Verify(ctx, u, "correct horse battery stapler"))
	assert.False(t, c.Verify(ctx, u, ""))
}

func TestCredentialStore_FreshSaltPerHash(t *testing.T) {
	ctx := context.Background()
	c := NewCredentialStore(testKDF, 2, nil, nil)

	a, err := c.HashPassword(ctx, "same")
	require.NoError(t, err)
	b, err := c.HashPassword(ctx, "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	assert.True(t, c.Verify(ctx, &entity.User{PasswordHash: a}, "same"))
	assert.True(t, c.Verify(ctx, &entity.User{PasswordHash: b}, "same"))
}

func TestCredentialStore_NoPassword(t *testing.T) {
	log := &eventLog{}
	c := NewCredentialStore(testKDF, 1, log, nil)

	assert.False(t, c.Verify(context.Background(), nil, "x"))
	assert.False(t, c.Verify(context.Background(), &entity.User{ID: "u"}, ""))
	assert.Empty(t, log.events)
}

// hugeWorkFactorHash is a well-formed container whose header asks for
// N=2^30, r=8: about a terabyte of memory if it were ever derived.
func hugeWorkFactorHash(t *testing.T) string {
	t.Helper()
	valid, err := helpers.HashPassword("pw", testKDF)
	require.NoError(t, err)
	raw, err := hex.DecodeString(valid)
	require.NoError(t, err)
	raw[7] = 30
	binary.BigEndian.PutUint32(raw[8:12], 8)
	sum := sha256.Sum256(raw[:48])
	copy(raw[48:64], sum[:16])
	return hex.EncodeToString(raw)
}

func TestCredentialStore_MalformedHashFailsClosed(t *testing.T) {
	for _, stored := range []string{
		"not-hex",
		"deadbeef",
		"$2a$10$abcdefghijklmnopqrstuuJ7s2Ukq2s3Yv5l8J0z7Q0N5Q5Q5Q5Q5",
		strings.Repeat("00", 96),
		hugeWorkFactorHash(t),
	} {
		t.Run(stored, func(t *testing.T) {
			log := &eventLog{}
			c := NewCredentialStore(testKDF, 1, log, nil)

			assert.False(t, c.Verify(context.Background(), &entity.User{ID: "u-9", PasswordHash: stored}, "anything"))
			require.Len(t, log.events, 1)
			assert.Equal(t, report.KindIntegrity, log.events[0].Kind)
			assert.Equal(t, "u-9", log.events[0].UserID)
			assert.NotContains(t, log.events[0].Error, "anything")
		})
	}
}

func TestCredentialStore_CancelledContext(t *testing.T) {
	c := NewCredentialStore(testKDF, 1, nil, nil)
	u := &entity.User{}
	require.NoError(t, c.SetPassword(context.Background(), u, "pw"))

	ctx, cancel := context.WithCancel(context.Background())
	// Hold the only slot so Acquire has to wait on ctx.
	require.NoError(t, c.sem.Acquire(context.Background(), 1))
	cancel()

	assert.False(t, c.Verify(ctx, u, "pw"))
	_, err := c.HashPassword(ctx, "pw")
	assert.ErrorIs(t, err, context.Canceled)

	c.sem.Release(1)
	assert.True(t, c.Verify(context.Background(), u, "pw"))
}

func TestCredentialStore_VerifyDummy(t *testing.T) {
	log := &eventLog{}
	c := NewCredentialStore(testKDF, 1, log, nil)
	c.VerifyDummy(context.Background(), "whatever")
	c.VerifyDummy(context.Background(), "whatever")
	assert.NotEmpty(t, c.dummyHash)
	assert.Empty(t, log.events)
}
