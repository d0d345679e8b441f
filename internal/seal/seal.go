// Package seal encrypts response bodies to the caller's bearer credential.
// The key is HKDF-SHA256(credential, salt) and the cipher XChaCha20-Poly1305;
// a client holding the same token derives the same key.
package seal

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	Algorithm = "xchacha20poly1305+hkdf-sha256"
	info      = "signaling-response"
)

var ErrOpen = errors.New("seal: message authentication failed")

// Envelope is what an encrypted response body looks like on the wire.
type Envelope struct {
	Encrypted bool   `json:"encrypted"`
	Alg       string `json:"alg"`
	Nonce     string `json:"nonce"`
	Data      string `json:"data"`
}

type Sealer struct {
	salt []byte
}

func New(salt string) *Sealer {
	return &Sealer{salt: []byte(salt)}
}

func (s *Sealer) Seal(credential string, plaintext []byte) (*Envelope, error) {
	aead, err := s.aead(credential)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("seal: nonce: %w", err)
	}
	return &Envelope{
		Encrypted: true,
		Alg:       Algorithm,
		Nonce:     base64.StdEncoding.EncodeToString(nonce),
		Data:      base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, plaintext, []byte(Algorithm))),
	}, nil
}

func (s *Sealer) Open(credential string, env *Envelope) ([]byte, error) {
	if env == nil || !env.Encrypted || env.Alg != Algorithm {
		return nil, fmt.Errorf("seal: unsupported envelope")
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("seal: nonce: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("seal: data: %w", err)
	}
	aead, err := s.aead(credential)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("seal: nonce length %d", len(nonce))
	}
	out, err := aead.Open(nil, nonce, data, []byte(Algorithm))
	if err != nil {
		return nil, ErrOpen
	}
	return out, nil
}

func (s *Sealer) aead(credential string) (cipher.AEAD, error) {
	if credential == "" {
		return nil, errors.New("seal: empty credential")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(credential), s.salt, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("seal: derive key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}
