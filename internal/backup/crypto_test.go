package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte(`{"version":2,"items":[]}`)

	blob, err := Encrypt(plaintext, "correct horse")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(blob, plaintext) {
		t.Fatal("ciphertext contains the plaintext")
	}

	got, err := Decrypt(blob, "correct horse")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestEncryptFreshSaltAndNonce(t *testing.T) {
	plaintext := []byte("same payload")

	a, err := Encrypt(plaintext, "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := Encrypt(plaintext, "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("two encryptions of the same payload produced identical blobs")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := Encrypt([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := Decrypt(blob, "wrong"); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptTamperedBlob(t *testing.T) {
	blob, err := Encrypt([]byte("secret"), "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	blob[len(blob)-1] ^= 0x01

	if _, err := Decrypt(blob, "pw"); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptTruncatedBlob(t *testing.T) {
	for _, n := range []int{0, 1, saltSize, saltSize + nonceSize + tagSize - 1} {
		if _, err := Decrypt(make([]byte, n), "pw"); !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("len %d: got %v, want ErrDecryptionFailed", n, err)
		}
	}
}

func TestEncryptEmptyPassword(t *testing.T) {
	if _, err := Encrypt([]byte("data"), ""); !errors.Is(err, ErrKeyDerivationFailed) {
		t.Fatalf("got %v, want ErrKeyDerivationFailed", err)
	}
}
