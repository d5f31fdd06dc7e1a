package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// Encode renders the given URL as a PNG QR code.
func Encode(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, defaultSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
