package services

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRRenderer turns a QR payload into an image the storefront can embed
type QRRenderer interface {
	DataURL(content string) (string, error)
}

// PNGQRRenderer renders QR codes as base64 PNG data URLs
type PNGQRRenderer struct {
	Size     int
	Recovery qrcode.RecoveryLevel
}

func NewPNGQRRenderer() *PNGQRRenderer {
	return &PNGQRRenderer{Size: 256, Recovery: qrcode.Medium}
}

func (r *PNGQRRenderer) DataURL(content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("%w: empty qr content", ErrInvalidInput)
	}
	png, err := qrcode.Encode(content, r.Recovery, r.Size)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
