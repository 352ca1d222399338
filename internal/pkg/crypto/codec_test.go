package crypto

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	codec, err := NewCodec(NewStaticKeyProvider(secret))
	require.NoError(t, err)
	return codec
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t, "test-encryption-key")

	cases := []string{
		"50000",
		"50000.50",
		"",
		"HDFC0001234",
		"1234567890123456",
		strings.Repeat("9", 1000),
	}

	for _, plaintext := range cases {
		token, err := codec.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := codec.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestCodec_TokenFormat(t *testing.T) {
	codec := newTestCodec(t, "test-encryption-key")

	token, err := codec.Encrypt("60000")
	require.NoError(t, err)

	parts := strings.Split(token, ":")
	require.Len(t, parts, 2)
	// 12-byte GCM nonce hex-encoded
	assert.Len(t, parts[0], 24)
}

func TestCodec_NonDeterministic(t *testing.T) {
	codec := newTestCodec(t, "test-encryption-key")

	first, err := codec.Encrypt("50000")
	require.NoError(t, err)
	second, err := codec.Encrypt("50000")
	require.NoError(t, err)

	// Same salary for two employees must not be distinguishable by
	// ciphertext equality.
	assert.NotEqual(t, first, second)
}

func TestCodec_WrongKey(t *testing.T) {
	codec := newTestCodec(t, "correct-key")
	other := newTestCodec(t, "wrong-key")

	token, err := codec.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(token)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestCodec_MalformedToken(t *testing.T) {
	codec := newTestCodec(t, "test-encryption-key")

	for _, token := range []string{
		"",
		"no-separator",
		"zz:zz",
		"abcd:1234",
		"deadbeef:",
	} {
		_, err := codec.Decrypt(token)
		assert.ErrorIs(t, err, ErrDecryptFailed, "token %q", token)
	}
}

func TestNewCodec_MissingKey(t *testing.T) {
	_, err := NewCodec(NewStaticKeyProvider(""))
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestEncryptedMoney_Reveal(t *testing.T) {
	codec := newTestCodec(t, "test-encryption-key")

	amount := decimal.RequireFromString("56200.00")
	field, err := NewEncryptedMoney(codec, amount)
	require.NoError(t, err)

	revealed, err := field.Reveal(codec)
	require.NoError(t, err)
	assert.True(t, amount.Equal(revealed))
}

func TestSafeAmount_FailureReturnsZero(t *testing.T) {
	codec := newTestCodec(t, "test-encryption-key")

	assert.True(t, SafeAmount(codec, EncryptedMoney("garbage")).IsZero())

	other := newTestCodec(t, "another-key")
	field, err := NewEncryptedMoney(other, decimal.NewFromInt(1800))
	require.NoError(t, err)
	assert.True(t, SafeAmount(codec, field).IsZero())
}

func TestSafeText_FailureReturnsEmpty(t *testing.T) {
	codec := newTestCodec(t, "test-encryption-key")

	assert.Equal(t, "", SafeText(codec, EncryptedText("garbage")))

	field, err := NewEncryptedText(codec, "HDFC0001234")
	require.NoError(t, err)
	assert.Equal(t, "HDFC0001234", SafeText(codec, field))
}
