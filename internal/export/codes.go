package export

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// CodeEncoder turns content into a square scan-code module matrix where
// true is a dark module.
type CodeEncoder interface {
	Matrix(content string) ([][]bool, error)
}

// QREncoder encodes QR codes.
type QREncoder struct {
	Level qrcode.RecoveryLevel
}

// Matrix implements CodeEncoder.
func (e QREncoder) Matrix(content string) ([][]bool, error) {
	if content == "" {
		return nil, fmt.Errorf("qr: empty content")
	}
	q, err := qrcode.New(content, e.Level)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	return q.Bitmap(), nil
}
