package helpers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// Stored hashes use the scrypt "kdf" container (the format of tarsnap's scrypt
// utility and node-scrypt's kdf), hex encoded:
//
//	[0:6]   "scrypt"
//	[6]     version (0)
//	[7]     log2(N)
//	[8:12]  r, big endian
//	[12:16] p, big endian
//	[16:48] salt
//	[48:64] first 16 bytes of sha256([0:48])
//	[64:96] hmac-sha256([0:64]) keyed with the second half of the derived key
const (
	kdfMagic      = "scrypt"
	kdfVersion    = 0
	kdfSaltLen    = 32
	kdfKeyLen     = 64
	kdfHeaderLen  = 48
	kdfSignedLen  = 64
	kdfEncodedLen = 96
)

// ErrMalformedHash is returned when a stored hash cannot be decoded.
var ErrMalformedHash = errors.New("malformed password hash")

// ScryptParams is the scrypt work factor. N = 1 << LogN.
type ScryptParams struct {
	LogN uint8
	R    uint32
	P    uint32
}

// DefaultScryptParams costs about 0.1s per derivation on commodity hardware.
var DefaultScryptParams = ScryptParams{LogN: 15, R: 8, P: 1}

func (p ScryptParams) validate() error {
	if p.LogN < 1 || p.LogN > 30 {
		return fmt.Errorf("scrypt logN %d out of range", p.LogN)
	}
	if p.R == 0 || p.P == 0 || uint64(p.R)*uint64(p.P) >= 1<<30 {
		return fmt.Errorf("scrypt r=%d p=%d out of range", p.R, p.P)
	}
	return nil
}

// Ceilings for parameters read back from a stored hash. scrypt needs about
// 128*r*N bytes, so these cap a single verification at 1 GiB even though
// DefaultScryptParams uses 32 MiB.
const (
	maxStoredLogN   = 20
	maxStoredRP     = 64
	maxStoredMemory = 1 << 30
)

// checkStored rejects work factors no hash produced by this service carries.
func (p ScryptParams) checkStored() error {
	if err := p.validate(); err != nil {
		return err
	}
	if p.LogN > maxStoredLogN {
		return fmt.Errorf("scrypt logN %d above ceiling %d", p.LogN, maxStoredLogN)
	}
	if uint64(p.R)*uint64(p.P) > maxStoredRP {
		return fmt.Errorf("scrypt r*p %d above ceiling %d", uint64(p.R)*uint64(p.P), maxStoredRP)
	}
	if 128*uint64(p.R)<<p.LogN > maxStoredMemory {
		return fmt.Errorf("scrypt logN=%d r=%d above memory ceiling", p.LogN, p.R)
	}
	return nil
}

// HashPassword derives a salted scrypt key from plain and returns the encoded container as hex.
func HashPassword(plain string, params ScryptParams) (string, error) {
	// Never produce a hash that VerifyPassword would refuse.
	if err := params.checkStored(); err != nil {
		return "", err
	}
	salt := make([]byte, kdfSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	buf := make([]byte, kdfEncodedLen)
	copy(buf[0:6], kdfMagic)
	buf[6] = kdfVersion
	buf[7] = params.LogN
	binary.BigEndian.PutUint32(buf[8:12], params.R)
	binary.BigEndian.PutUint32(buf[12:16], params.P)
	copy(buf[16:kdfHeaderLen], salt)
	sum := sha256.Sum256(buf[:kdfHeaderLen])
	copy(buf[kdfHeaderLen:kdfSignedLen], sum[:16])

	dk, err := scrypt.Key([]byte(plain), salt, 1<<params.LogN, int(params.R), int(params.P), kdfKeyLen)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, dk[32:])
	mac.Write(buf[:kdfSignedLen])
	copy(buf[kdfSignedLen:], mac.Sum(nil))

	return hex.EncodeToString(buf), nil
}

// VerifyPassword re-derives plain with the parameters embedded in hash and
// compares in constant time. A hash that cannot be decoded yields false and an
// error wrapping ErrMalformedHash.
func VerifyPassword(hash string, plain string) (bool, error) {
	buf, params, err := decodeKDF(hash)
	if err != nil {
		return false, err
	}
	dk, err := scrypt.Key([]byte(plain), buf[16:kdfHeaderLen], 1<<params.LogN, int(params.R), int(params.P), kdfKeyLen)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	mac := hmac.New(sha256.New, dk[32:])
	mac.Write(buf[:kdfSignedLen])
	return hmac.Equal(mac.Sum(nil), buf[kdfSignedLen:]), nil
}

// HashParams reports the work factor a stored hash was created with.
func HashParams(hash string) (ScryptParams, error) {
	_, params, err := decodeKDF(hash)
	return params, err
}

func decodeKDF(hash string) ([]byte, ScryptParams, error) {
	buf, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ScryptParams{}, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if len(buf) != kdfEncodedLen {
		return nil, ScryptParams{}, fmt.Errorf("%w: length %d", ErrMalformedHash, len(buf))
	}
	if string(buf[0:6]) != kdfMagic || buf[6] != kdfVersion {
		return nil, ScryptParams{}, fmt.Errorf("%w: bad header", ErrMalformedHash)
	}
	sum := sha256.Sum256(buf[:kdfHeaderLen])
	if !hmac.Equal(sum[:16], buf[kdfHeaderLen:kdfSignedLen]) {
		return nil, ScryptParams{}, fmt.Errorf("%w: checksum mismatch", ErrMalformedHash)
	}
	params := ScryptParams{
		LogN: buf[7],
		R:    binary.BigEndian.Uint32(buf[8:12]),
		P:    binary.BigEndian.Uint32(buf[12:16]),
	}
	if err := params.checkStored(); err != nil {
		return nil, ScryptParams{}, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return buf, params, nil
}
