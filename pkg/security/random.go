package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
)

const resetSeedSize = 32

func randomBytes(n uint32) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandomHex returns n random bytes hex encoded
func RandomHex(n uint32) (string, error) {
	b, err := randomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ResetToken returns the sha256 of a random hex seed, hex encoded (64 chars)
func ResetToken() (string, error) {
	seed, err := RandomHex(resetSeedSize)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:]), nil
}

// NumericCode returns a uniformly random decimal code of the given length.
// Leading zeros are kept
func NumericCode(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("code length must be bigger than 0")
	}

	b := make([]byte, length)
	ten := big.NewInt(10)
	for i := range b {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b[i] = byte('0' + n.Int64())
	}

	return string(b), nil
}
