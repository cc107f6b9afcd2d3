// Package qrcode renders provisioning URIs as PNG QR codes.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent             = errors.New("content cannot be empty")
	ErrorFailedToGenerateQRCode = errors.New("failed to generate QR code")
)

// DefaultSize is the image edge in pixels when none is configured.
const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// Renderer produces PNG QR codes of a fixed size.
type Renderer struct {
	size  int
	level skipqrcode.RecoveryLevel
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image edge in pixels. Non-positive values are ignored.
func WithSize(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithHighRecovery switches to the 30% error-correction level, which keeps
// codes readable on low-quality screens at the cost of density.
func WithHighRecovery() Option {
	return func(r *Renderer) { r.level = skipqrcode.High }
}

func New(opts ...Option) *Renderer {
	r := &Renderer{size: DefaultSize, level: skipqrcode.Medium}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PNG encodes content.
func (r *Renderer) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	png, err := skipqrcode.Encode(content, r.level, r.size)
	if err != nil {
		return nil, errors.Join(ErrorFailedToGenerateQRCode, err)
	}
	return png, nil
}

// DataURI encodes content as a data:image/png;base64 URI suitable for an
// <img src>.
func (r *Renderer) DataURI(content string) (string, error) {
	png, err := r.PNG(content)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
