package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	return key
}

func writePEM(t *testing.T, block *pem.Block) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestCredentials_Sign(t *testing.T) {
	key := testKey(t)
	fixed := time.UnixMilli(1767225600000)
	creds := &Credentials{KeyID: "test-key-id", PrivateKey: key, now: func() time.Time { return fixed }}

	h, err := creds.Sign(http.MethodGet, "/trade-api/v2/markets")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if h.Get(HeaderKey) != "test-key-id" {
		t.Errorf("%s = %q, want %q", HeaderKey, h.Get(HeaderKey), "test-key-id")
	}
	if h.Get(HeaderTimestamp) != "1767225600000" {
		t.Errorf("%s = %q, want %q", HeaderTimestamp, h.Get(HeaderTimestamp), "1767225600000")
	}

	sig := h.Get(HeaderSignature)
	if err := Verify(&key.PublicKey, "1767225600000", http.MethodGet, "/trade-api/v2/markets", sig); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
	if err := Verify(&key.PublicKey, "1767225600000", http.MethodGet, "/trade-api/v2/events", sig); err == nil {
		t.Error("Verify should fail for a different path")
	}
}

func TestCredentials_Apply(t *testing.T) {
	key := testKey(t)
	creds := &Credentials{KeyID: "kid", PrivateKey: key}

	req, err := http.NewRequest(http.MethodGet, "https://example.com/trade-api/v2/markets?limit=5", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if err := creds.Apply(req, req.URL.Path); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	err = Verify(&key.PublicKey, req.Header.Get(HeaderTimestamp), http.MethodGet, "/trade-api/v2/markets", req.Header.Get(HeaderSignature))
	if err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestLoadPrivateKey(t *testing.T) {
	key := testKey(t)
	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal PKCS#8: %v", err)
	}

	tests := []struct {
		name  string
		block *pem.Block
	}{
		{"pkcs8", &pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}},
		{"pkcs1", &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loaded, err := LoadPrivateKey(writePEM(t, tt.block))
			if err != nil {
				t.Fatalf("LoadPrivateKey failed: %v", err)
			}
			if loaded.N.Cmp(key.N) != 0 {
				t.Error("loaded key does not match original")
			}
		})
	}
}

func TestLoadPrivateKey_Errors(t *testing.T) {
	if _, err := LoadPrivateKey("/nonexistent/path/to/key.pem"); err == nil {
		t.Error("expected error for nonexistent file")
	}

	path := filepath.Join(t.TempDir(), "invalid.pem")
	if err := os.WriteFile(path, []byte("not a pem file"), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if _, err := LoadPrivateKey(path); err == nil {
		t.Error("expected error for invalid PEM")
	}
}

func TestLoadOptional(t *testing.T) {
	key := testKey(t)
	path := writePEM(t, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	t.Run("none configured", func(t *testing.T) {
		_, err := LoadOptional("", "")
		if !errors.Is(err, ErrNoCredentials) {
			t.Errorf("err = %v, want ErrNoCredentials", err)
		}
	})

	t.Run("half configured", func(t *testing.T) {
		if _, err := LoadOptional("kid", ""); err == nil || errors.Is(err, ErrNoCredentials) {
			t.Errorf("err = %v, want configuration error", err)
		}
		if _, err := LoadOptional("", path); err == nil || errors.Is(err, ErrNoCredentials) {
			t.Errorf("err = %v, want configuration error", err)
		}
	})

	t.Run("fully configured", func(t *testing.T) {
		creds, err := LoadOptional("kid", path)
		if err != nil {
			t.Fatalf("LoadOptional failed: %v", err)
		}
		if creds.KeyID != "kid" || creds.PrivateKey == nil {
			t.Errorf("creds = %+v", creds)
		}
	})
}
