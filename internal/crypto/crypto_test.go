package crypto

import (
	"context"
	"strings"
	"testing"
)

const testHexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestService(t *testing.T) *Service {
	t.Helper()

	p, err := NewStaticProvider(testHexKey)
	if err != nil {
		t.Fatalf("NewStaticProvider: %v", err)
	}
	return NewService(p)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	plaintext := []byte("<p>The Supplier shall deliver within 30 days.</p>")

	ct, err := svc.Encrypt(ctx, "ws-1", plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if strings.Contains(ct, string(plaintext)) {
		t.Fatal("ciphertext contains plaintext")
	}

	got, err := svc.Decrypt(ctx, "ws-1", ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("round trip mismatch: got %q", got)
	}
}

func TestEncryptNonDeterministic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Encrypt(ctx, "ws-1", []byte("same input"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := svc.Encrypt(ctx, "ws-1", []byte("same input"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestDecryptWrongWorkspaceFails(t *testing.T) {
	// The static provider rejects a second workspace ID outright, so use
	// two services sharing the key to exercise the AAD binding.
	pa, _ := NewStaticProvider(testHexKey)
	pb, _ := NewStaticProvider(testHexKey)
	ctx := context.Background()

	ct, err := NewService(pa).Encrypt(ctx, "ws-a", []byte("confidential"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := NewService(pb).Decrypt(ctx, "ws-b", ct); err == nil {
		t.Error("expected decryption under a different workspace ID to fail")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ct, err := svc.Encrypt(ctx, "ws-1", []byte("original"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := svc.Decrypt(ctx, "ws-1", "not-base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := svc.Decrypt(ctx, "ws-1", "c2hvcnQ="); err == nil {
		t.Error("expected error for truncated ciphertext")
	}

	// Flip a character in the body of the ciphertext.
	tampered := []byte(ct)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}
	if _, err := svc.Decrypt(ctx, "ws-1", string(tampered)); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestStaticProviderValidation(t *testing.T) {
	if _, err := NewStaticProvider("zz"); err == nil {
		t.Error("expected error for non-hex key")
	}
	if _, err := NewStaticProvider("abcd"); err == nil {
		t.Error("expected error for short key")
	}

	p, err := NewStaticProvider(testHexKey)
	if err != nil {
		t.Fatalf("NewStaticProvider: %v", err)
	}

	if _, err := p.GetKey(context.Background(), "ws-first"); err != nil {
		t.Fatalf("GetKey first workspace: %v", err)
	}
	if _, err := p.GetKey(context.Background(), "ws-second"); err == nil {
		t.Error("expected error for a second workspace ID")
	}
}
