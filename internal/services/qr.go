package services

import (
	"github.com/skip2/go-qrcode"
)

const defaultQRSize = 256

type QRService struct{}

func NewQRService() *QRService {
	return &QRService{}
}

// GeneratePNG renders the short URL as a QR code PNG.
func (s *QRService) GeneratePNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
