package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureDelimiter separates the signed data from its hex HMAC.
const SignatureDelimiter = "|SIG:"

var ErrEmptySigningKey = errors.New("signing key must not be empty")

// PayloadSigner signs and verifies ticket payloads with HMAC-SHA256.
type PayloadSigner struct {
	key []byte
}

func NewPayloadSigner(secretKey string) (*PayloadSigner, error) {
	if secretKey == "" {
		return nil, ErrEmptySigningKey
	}
	return &PayloadSigner{key: []byte(secretKey)}, nil
}

func (s *PayloadSigner) mac(data string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

// Sign returns data followed by the delimiter and its lowercase hex signature.
func (s *PayloadSigner) Sign(data string) string {
	return data + SignatureDelimiter + hex.EncodeToString(s.mac(data))
}

// Verify returns the signed data when the text after the last delimiter is
// exactly the lowercase hex signature Sign would produce. Any other encoding
// of the same bytes, including uppercase hex, fails verification.
func (s *PayloadSigner) Verify(payload string) (string, bool) {
	idx := strings.LastIndex(payload, SignatureDelimiter)
	if idx == -1 {
		return "", false
	}
	data := payload[:idx]
	provided := payload[idx+len(SignatureDelimiter):]
	expected := hex.EncodeToString(s.mac(data))
	if !hmac.Equal([]byte(provided), []byte(expected)) {
		return "", false
	}
	return data, true
}
