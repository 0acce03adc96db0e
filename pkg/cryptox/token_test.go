package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantLen int
	}{
		{"128-bit token", TokenSize128, 22},
		{"256-bit token", TokenSize256, 43},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.Len(t, token, tt.wantLen)

			token2, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	fp1a := FingerprintToken(key, "test-token-1")
	fp1b := FingerprintToken(key, "test-token-1")
	fp2 := FingerprintToken(key, "test-token-2")
	other := FingerprintToken([]byte("another-key-another-key-another!!"), "test-token-1")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.NotEqual(t, fp1a, other, "fingerprint must depend on the key")
	require.Len(t, fp1a, 43)
}

func TestDeriveKey(t *testing.T) {
	secret := "a-session-secret-that-is-long-enough-for-hkdf"

	a, err := DeriveKey(secret, PurposeLoginState)
	require.NoError(t, err)
	require.Len(t, a, 32)

	again, err := DeriveKey(secret, PurposeLoginState)
	require.NoError(t, err)
	require.Equal(t, a, again)

	b, err := DeriveKey(secret, PurposeSessionHash)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "purposes must yield independent keys")

	_, err = DeriveKey("short", PurposeLoginState)
	require.ErrorIs(t, err, ErrWeakSecret)
}
