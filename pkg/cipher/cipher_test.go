package cipher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	c, err := NewFromBase64(key)
	require.NoError(t, err)
	return c
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plain := range []string{
		"reason text",
		"Спам в чате, третье предупреждение",
		"이용제한 사유: 도배 🚫",
		strings.Repeat("x", 4096),
		"",
	} {
		token, err := c.Encrypt(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, token)

		got, err := c.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_WrongKey(t *testing.T) {
	token, err := newTestCipher(t).Encrypt("secret")
	require.NoError(t, err)

	_, err = newTestCipher(t).Decrypt(token)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestDecrypt_Tampered(t *testing.T) {
	c := newTestCipher(t)
	token, err := c.Encrypt("secret")
	require.NoError(t, err)

	b := []byte(token)
	if b[10] == 'A' {
		b[10] = 'B'
	} else {
		b[10] = 'A'
	}
	_, err = c.Decrypt(string(b))
	assert.Error(t, err)

	_, err = c.Decrypt("not base64 !!")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = c.Decrypt("AAAA")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewFromBase64("@@@")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
