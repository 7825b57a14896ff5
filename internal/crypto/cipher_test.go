package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	key := make([]byte, KeySize)
	_, _ = rand.Read(key)
	s, err := NewSealer(key)
	require.NoError(t, err)
	return s
}

func TestNewSealer(t *testing.T) {
	tests := []struct {
		name    string
		keyLen  int
		wantErr bool
	}{
		{name: "valid key", keyLen: 32},
		{name: "too short", keyLen: 16, wantErr: true},
		{name: "too long", keyLen: 64, wantErr: true},
		{name: "empty", keyLen: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSealer(make([]byte, tt.keyLen))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "encryption key must be 32 bytes")
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestSealer_SealOpen(t *testing.T) {
	s := newTestSealer(t)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{name: "jwt", plaintext: []byte("eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig")},
		{name: "unicode", plaintext: []byte("Akses ditolak ✓")},
		{name: "single byte", plaintext: []byte{0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := s.Seal(tt.plaintext)
			require.NoError(t, err)
			assert.NotContains(t, sealed, string(tt.plaintext))

			opened, err := s.Open(sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, opened)
		})
	}
}

func TestSealer_SealEmpty(t *testing.T) {
	s := newTestSealer(t)
	_, err := s.Seal(nil)
	assert.Error(t, err)
}

func TestSealer_Randomness(t *testing.T) {
	s := newTestSealer(t)
	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)

	// разные nonce дают разный шифртекст
	assert.NotEqual(t, a, b)
}

func TestSealer_OpenErrors(t *testing.T) {
	s := newTestSealer(t)
	other := newTestSealer(t)

	sealed, err := s.Seal([]byte("token"))
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrDecrypt, "чужой ключ")

	_, err = s.Open("not-base64!!")
	assert.Error(t, err)

	_, err = s.Open(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrDecrypt)

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	_, err = s.Open(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecrypt, "поврежденный auth tag")
}
