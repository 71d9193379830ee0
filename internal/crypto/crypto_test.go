package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	master, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("GenerateMasterKey() failed: %v", err)
	}
	mk, err := ParseMasterKey(master)
	if err != nil {
		t.Fatalf("ParseMasterKey() failed: %v", err)
	}
	key, err := DeriveSessionKey(mk, nil)
	if err != nil {
		t.Fatalf("DeriveSessionKey() failed: %v", err)
	}

	plain := []byte(`{"token":"abc"}`)
	blob, err := EncryptAESGCM(key, plain)
	if err != nil {
		t.Fatalf("EncryptAESGCM() failed: %v", err)
	}
	if bytes.Contains(blob, plain) {
		t.Fatalf("ciphertext contains plaintext")
	}
	got, err := DecryptAESGCM(key, blob)
	if err != nil {
		t.Fatalf("DecryptAESGCM() failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("decrypted data does not match original data")
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	k1 := bytes.Repeat([]byte{1}, KeySize)
	k2 := bytes.Repeat([]byte{2}, KeySize)
	blob, err := EncryptAESGCM(k1, []byte("secret"))
	if err != nil {
		t.Fatalf("EncryptAESGCM() failed: %v", err)
	}
	if _, err := DecryptAESGCM(k2, blob); err == nil {
		t.Fatalf("expected decrypt with wrong key to fail")
	}
	if _, err := DecryptAESGCM(k1, blob[:4]); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("got %v, want ErrCiphertextTooShort", err)
	}
}

func TestDeriveSessionKeyIsDeterministic(t *testing.T) {
	mk := bytes.Repeat([]byte{7}, KeySize)
	a, _ := DeriveSessionKey(mk, nil)
	b, _ := DeriveSessionKey(mk, nil)
	if !bytes.Equal(a, b) {
		t.Fatalf("derived keys differ")
	}
	if bytes.Equal(a, mk) {
		t.Fatalf("derived key equals master key")
	}
	if _, err := DeriveSessionKey([]byte("short"), nil); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("got %v, want ErrInvalidKeyLength", err)
	}
}

func TestParseMasterKeyRejectsBadInput(t *testing.T) {
	if _, err := ParseMasterKey("zz"); err == nil {
		t.Fatalf("expected hex error")
	}
	if _, err := ParseMasterKey("abcd"); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("got %v, want ErrInvalidKeyLength", err)
	}
}
