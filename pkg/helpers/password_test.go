package helpers

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = ScryptParams{LogN: 10, R: 8, P: 1}

func TestHashPassword_RoundTrip(t *testing.T) {
	for _, plain := range []string{"password123", "", "ünïcødé-pässwörd", strings.Repeat("x", 200)} {
		hash, err := HashPassword(plain, testParams)
		require.NoError(t, err)
		require.Len(t, hash, kdfEncodedLen*2)

		ok, err := VerifyPassword(hash, plain)
		require.NoError(t, err)
		assert.True(t, ok, "plain %q must verify against its own hash", plain)
	}
}

func TestHashPassword_WrongAttempt(t *testing.T) {
	hash, err := HashPassword("correct horse", testParams)
	require.NoError(t, err)

	ok, err := VerifyPassword(hash, "correct hors")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_FreshSaltEachCall(t *testing.T) {
	a, err := HashPassword("same", testParams)
	require.NoError(t, err)
	b, err := HashPassword("same", testParams)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	for _, h := range []string{a, b} {
		ok, err := VerifyPassword(h, "same")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestHashPassword_DoesNotEncodePlaintext(t *testing.T) {
	plain := "hunter2hunter2"
	hash, err := HashPassword(plain, testParams)
	require.NoError(t, err)

	assert.NotContains(t, hash, plain)
	assert.NotContains(t, hash, hex.EncodeToString([]byte(plain)))
}

func TestHashPassword_EmbedsParams(t *testing.T) {
	hash, err := HashPassword("x", testParams)
	require.NoError(t, err)

	params, err := HashParams(hash)
	require.NoError(t, err)
	assert.Equal(t, testParams, params)
}

func TestHashPassword_RejectsBadParams(t *testing.T) {
	_, err := HashPassword("x", ScryptParams{LogN: 0, R: 8, P: 1})
	assert.Error(t, err)
	_, err = HashPassword("x", ScryptParams{LogN: 10, R: 0, P: 1})
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	valid, err := HashPassword("pw", testParams)
	require.NoError(t, err)
	raw, err := hex.DecodeString(valid)
	require.NoError(t, err)

	flip := func(i int) string {
		b := append([]byte(nil), raw...)
		b[i] ^= 0xff
		return hex.EncodeToString(b)
	}

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not hex", "zzzz"},
		{"short", valid[:64]},
		{"long", valid + "00"},
		{"bad magic", flip(0)},
		{"bad version", flip(6)},
		{"tampered salt", flip(20)},
		{"tampered checksum", flip(50)},
		{"bcrypt", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword(tt.hash, "pw")
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrMalformedHash)
		})
	}
}

func TestVerifyPassword_TamperedMACFailsClosed(t *testing.T) {
	valid, err := HashPassword("pw", testParams)
	require.NoError(t, err)
	raw, err := hex.DecodeString(valid)
	require.NoError(t, err)
	raw[90] ^= 0x01

	ok, err := VerifyPassword(hex.EncodeToString(raw), "pw")
	require.NoError(t, err)
	assert.False(t, ok)
}

// reparam rewrites the work factor of an encoded hash and fixes up the
// header checksum so only the parameter ceiling can reject it.
func reparam(t *testing.T, hash string, logN uint8, r, p uint32) string {
	t.Helper()
	raw, err := hex.DecodeString(hash)
	require.NoError(t, err)
	raw[7] = logN
	binary.BigEndian.PutUint32(raw[8:12], r)
	binary.BigEndian.PutUint32(raw[12:16], p)
	sum := sha256.Sum256(raw[:kdfHeaderLen])
	copy(raw[kdfHeaderLen:kdfSignedLen], sum[:16])
	return hex.EncodeToString(raw)
}

func TestVerifyPassword_RejectsOversizedWorkFactor(t *testing.T) {
	valid, err := HashPassword("pw", testParams)
	require.NoError(t, err)

	tests := []struct {
		name string
		logN uint8
		r, p uint32
	}{
		{"logN 30", 30, 8, 1},
		{"logN 21", 21, 8, 1},
		{"huge r", 10, 1 << 20, 1},
		{"huge p", 10, 8, 1 << 10},
		{"memory ceiling", 20, 16, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword(reparam(t, valid, tt.logN, tt.r, tt.p), "pw")
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrMalformedHash)
		})
	}

	// Within the ceilings the header is accepted and only the MAC decides.
	ok, err := VerifyPassword(reparam(t, valid, 11, 8, 1), "pw")
	require.NoError(t, err)
	assert.False(t, ok)
}
