// Package auth secures API connections with a shared password: a PBKDF2 key,
// an HMAC challenge handshake and an AEAD-framed connection.
package auth

import (
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

const (
	GeneratedKeyLength = 16

	keyAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	pbkdf2Iterations = 100000
	pbkdf2Salt       = "kbdswitch-Key-v1"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// GenerateKey returns a random base62 password of GeneratedKeyLength
// characters.
func GenerateKey() (string, error) {
	// Bytes at or above this bound would bias the alphabet.
	const bound = 256 - 256%len(keyAlphabet)

	key := make([]byte, 0, GeneratedKeyLength)
	buf := make([]byte, GeneratedKeyLength)
	for len(key) < GeneratedKeyLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= bound || len(key) == GeneratedKeyLength {
				continue
			}
			key = append(key, keyAlphabet[int(b)%len(keyAlphabet)])
		}
	}
	return string(key), nil
}

// DeriveKey stretches password to a 32 byte key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key(sha256.New, password, []byte(pbkdf2Salt), pbkdf2Iterations, 32)
}
