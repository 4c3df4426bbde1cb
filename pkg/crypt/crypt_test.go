package crypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/crypt"
)

func TestBillingRoundTrip(t *testing.T) {
	config.Set("APP_KEY", "test-app-key")

	billing := map[string]any{"name": "Achieng Otieno", "phone": "0712345678"}
	enc, err := crypt.EncryptJSON(billing)
	require.NoError(t, err)
	assert.NotContains(t, enc, "Achieng")

	var out map[string]any
	require.NoError(t, crypt.DecryptJSON(enc, &out))
	assert.Equal(t, billing, out)
}

func TestTamperedCiphertextFails(t *testing.T) {
	config.Set("APP_KEY", "test-app-key")

	enc, err := crypt.Encrypt("secret")
	require.NoError(t, err)

	b := []byte(enc)
	mid := len(b) / 2
	if b[mid] == 'A' {
		b[mid] = 'B'
	} else {
		b[mid] = 'A'
	}
	_, err = crypt.Decrypt(string(b))
	assert.ErrorIs(t, err, crypt.ErrDecrypt)

	_, err = crypt.Decrypt("not base64 !!")
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}
