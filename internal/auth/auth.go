// Package auth signs Kalshi REST requests with RSA-PSS.
//
// The signed message is timestamp_ms + METHOD + path, where path is the
// full URL path (including the /trade-api/v2 prefix) without the query.
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Request header names.
const (
	HeaderKey       = "KALSHI-ACCESS-KEY"
	HeaderTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	HeaderSignature = "KALSHI-ACCESS-SIGNATURE"
)

// ErrNoCredentials is returned by LoadOptional when neither a key id nor
// a key path is configured.
var ErrNoCredentials = errors.New("kalshi credentials not configured")

var pssOptions = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}

// Credentials holds the API key id and private key for signing requests.
type Credentials struct {
	KeyID      string          // API key ID from the Kalshi dashboard
	PrivateKey *rsa.PrivateKey

	now func() time.Time
}

// LoadOptional loads credentials when both values are set, returns
// ErrNoCredentials when both are empty, and an error when only one is.
func LoadOptional(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" && privateKeyPath == "" {
		return nil, ErrNoCredentials
	}
	return LoadCredentials(keyID, privateKeyPath)
}

// LoadCredentials loads credentials from a key id and private key file path.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("API key ID is required")
	}
	if privateKeyPath == "" {
		return nil, fmt.Errorf("private key path is required")
	}

	privateKey, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return &Credentials{KeyID: keyID, PrivateKey: privateKey}, nil
}

// LoadPrivateKey loads an RSA private key from a PEM file.
// PKCS#8 and PKCS#1 encodings are accepted.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParsePrivateKey(data)
}

// ParsePrivateKey decodes a PEM encoded RSA private key.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA private key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return rsaKey, nil
}

// Sign returns the three KALSHI-ACCESS-* headers for a request.
func (c *Credentials) Sign(method, path string) (http.Header, error) {
	ts := strconv.FormatInt(c.clock().UnixMilli(), 10)

	hashed := sha256.Sum256([]byte(ts + method + path))
	sig, err := rsa.SignPSS(rand.Reader, c.PrivateKey, crypto.SHA256, hashed[:], pssOptions)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}

	h := make(http.Header, 3)
	h.Set(HeaderKey, c.KeyID)
	h.Set(HeaderTimestamp, ts)
	h.Set(HeaderSignature, base64.StdEncoding.EncodeToString(sig))
	return h, nil
}

// Apply signs req for path and sets the resulting headers on it.
func (c *Credentials) Apply(req *http.Request, path string) error {
	h, err := c.Sign(req.Method, path)
	if err != nil {
		return err
	}
	for k, v := range h {
		req.Header[k] = v
	}
	return nil
}

// Verify checks a signature produced by Sign.
func Verify(pub *rsa.PublicKey, timestamp, method, path, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	hashed := sha256.Sum256([]byte(timestamp + method + path))
	return rsa.VerifyPSS(pub, crypto.SHA256, hashed[:], sig, pssOptions)
}

func (c *Credentials) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
