package crypto

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EncryptedText is a stored ciphertext token for a sensitive string field
// (bank account numbers, routing/IFSC codes). The only way to read it is
// Reveal with an explicit codec, so ciphertext can never be mistaken for
// the value itself.
type EncryptedText string

func NewEncryptedText(codec *Codec, value string) (EncryptedText, error) {
	token, err := codec.Encrypt(value)
	if err != nil {
		return "", err
	}
	return EncryptedText(token), nil
}

func (e EncryptedText) Reveal(codec *Codec) (string, error) {
	return codec.Decrypt(string(e))
}

// EncryptedMoney is a stored ciphertext token for a monetary amount.
type EncryptedMoney string

func NewEncryptedMoney(codec *Codec, amount decimal.Decimal) (EncryptedMoney, error) {
	token, err := codec.Encrypt(amount.String())
	if err != nil {
		return "", err
	}
	return EncryptedMoney(token), nil
}

func (e EncryptedMoney) Reveal(codec *Codec) (decimal.Decimal, error) {
	plaintext, err := codec.Decrypt(string(e))
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(plaintext)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: not a decimal amount", ErrDecryptFailed)
	}
	return amount, nil
}

// SafeAmount decrypts a monetary field for best-effort reporting.
// It returns zero on any failure and never returns an error, so one
// undecryptable row cannot abort a whole report.
func SafeAmount(codec *Codec, e EncryptedMoney) decimal.Decimal {
	amount, err := e.Reveal(codec)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// SafeText is the string counterpart of SafeAmount: empty on failure,
// never an error.
func SafeText(codec *Codec, e EncryptedText) string {
	value, err := e.Reveal(codec)
	if err != nil {
		return ""
	}
	return value
}
