package helpers

import (
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const (
	qrRecoveryLevel = qrcode.Medium
	qrImageSize     = 256

	// Byte-mode capacity of a version 40 symbol at medium recovery.
	MaxQRPayloadBytes = 2331
)

var ErrQREncoding = errors.New("qr encoding failed")

// RenderQR encodes payload as a PNG QR code.
func RenderQR(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrQREncoding)
	}
	if len(payload) > MaxQRPayloadBytes {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds capacity", ErrQREncoding, len(payload))
	}

	png, err := qrcode.Encode(payload, qrRecoveryLevel, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQREncoding, err)
	}
	return png, nil
}
