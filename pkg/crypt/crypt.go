// Package crypt seals order billing details with AES-256-GCM before they
// are written to the orders table.
//
//	enc, _ := crypt.EncryptJSON(billing)
//	var out map[string]any
//	crypt.DecryptJSON(enc, &out)
//
// Sealed values are base64url(nonce || ciphertext || tag) and fit in a
// text column. The key is SHA-256 of APP_KEY, or of JWT_SECRET when no
// APP_KEY is set.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/storefront/config"
)

// ErrDecrypt covers every way a sealed value can fail to open: bad
// encoding, truncation, a wrong key or tampering.
var ErrDecrypt = errors.New("crypt: decryption failed")

var encoding = base64.URLEncoding

func aead() (cipher.AEAD, error) {
	secret := config.AppKey()
	if secret == "" {
		secret = config.JWTSecret()
	}
	if secret == "" {
		return nil, errors.New("crypt: APP_KEY not configured")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypt: cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func seal(plain []byte) (string, error) {
	gcm, err := aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypt: nonce: %w", err)
	}
	return encoding.EncodeToString(gcm.Seal(nonce, nonce, plain, nil)), nil
}

func open(sealed string) ([]byte, error) {
	gcm, err := aead()
	if err != nil {
		return nil, err
	}
	data, err := encoding.DecodeString(sealed)
	if err != nil || len(data) < gcm.NonceSize() {
		return nil, ErrDecrypt
	}
	n := gcm.NonceSize()
	plain, err := gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

func Encrypt(plaintext string) (string, error) {
	return seal([]byte(plaintext))
}

func Decrypt(sealed string) (string, error) {
	plain, err := open(sealed)
	return string(plain), err
}

// EncryptJSON seals the JSON encoding of v.
func EncryptJSON(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("crypt: marshal: %w", err)
	}
	return seal(raw)
}

// DecryptJSON opens sealed and decodes the JSON inside into dest.
func DecryptJSON(sealed string, dest interface{}) error {
	raw, err := open(sealed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("crypt: unmarshal: %w", err)
	}
	return nil
}
