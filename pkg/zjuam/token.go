package zjuam

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// TokenSource derives session tokens from credentials. The secret is drawn
// once at construction and never rotated or persisted, so tokens are stable
// within one process run and worthless across restarts.
type TokenSource struct {
	secret []byte
}

func NewTokenSource() (*TokenSource, error) {
	secret := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, fmt.Errorf("generating instance secret: %w", err)
	}
	return &TokenSource{secret: secret}, nil
}

// Derive maps a credential to its token:
//
//	base64( SHA-256( secret || SHA-256(username) || SHA-256(password) ) )
//
// A holder of the original credential can recompute the same token without a
// prior login; nobody can forge one without the instance secret.
func (ts *TokenSource) Derive(username, password string) string {
	uh := sha256.Sum256([]byte(username))
	ph := sha256.Sum256([]byte(password))
	h := sha256.New()
	h.Write(ts.secret)
	h.Write(uh[:])
	h.Write(ph[:])
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
