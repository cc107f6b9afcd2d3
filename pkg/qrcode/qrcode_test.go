package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumlabs/totpgate/pkg/qrcode"
)

const uri = "otpauth://totp/Datum:u1%40example.com?secret=GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ&issuer=Datum"

func TestRenderer_PNG(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []qrcode.Option
		want int
	}{
		{"default size", nil, qrcode.DefaultSize},
		{"custom size", []qrcode.Option{qrcode.WithSize(128)}, 128},
		{"ignores non-positive size", []qrcode.Option{qrcode.WithSize(-1)}, qrcode.DefaultSize},
		{"high recovery", []qrcode.Option{qrcode.WithHighRecovery(), qrcode.WithSize(300)}, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := qrcode.New(tt.opts...).PNG(uri)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, img.Bounds().Dx())
			assert.Equal(t, tt.want, img.Bounds().Dy())
		})
	}
}

func TestRenderer_EmptyContent(t *testing.T) {
	t.Parallel()

	r := qrcode.New()
	for _, content := range []string{"", "  \t\n"} {
		_, err := r.PNG(content)
		assert.ErrorIs(t, err, qrcode.ErrEmptyContent)

		_, err = r.DataURI(content)
		assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
	}
}

func TestRenderer_DataURI(t *testing.T) {
	t.Parallel()

	out, err := qrcode.New().DataURI(uri)
	require.NoError(t, err)

	payload, ok := strings.CutPrefix(out, "data:image/png;base64,")
	require.True(t, ok)

	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}
