package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of every AES-256 key used here.
const KeySize = 32

// sessionInfo binds derived keys to the session file so the master key can serve other purposes.
const sessionInfo = "taskmanager-session-file"

// ParseMasterKey decodes a 64 character hex string into a 32 byte key.
func ParseMasterKey(h string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(h))
	if err != nil {
		return nil, fmt.Errorf("master key hex decode error: %w", err)
	}
	if len(b) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	return b, nil
}

// DeriveSessionKey derives the session-file key from a master key using HKDF-SHA256.
// salt may be nil.
func DeriveSessionKey(master, salt []byte) ([]byte, error) {
	if len(master) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	h := hkdf.New(sha256.New, master, salt, []byte(sessionInfo))
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateMasterKey returns a random master key as hex.
func GenerateMasterKey() (string, error) {
	b, err := generateRandomBytes(KeySize)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func generateRandomBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
