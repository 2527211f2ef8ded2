package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"slices"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/nao1215/scratchindex/internal/model"
)

// DefaultFormats lists the image formats accepted when none are configured.
// The names are those reported by image.Decode.
var DefaultFormats = []string{"jpeg", "png", "webp"}

// errEmptyImage is returned for zero-length input or a decoded image with no pixels.
var errEmptyImage = errors.New("empty image")

// Decoder turns raw bytes into a PixelGrid, enforcing a size limit and a
// set of accepted formats.
type Decoder struct {
	maxBytes int64
	formats  []string
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithMaxBytes rejects inputs larger than n bytes. Zero or negative disables the limit.
func WithMaxBytes(n int64) DecoderOption {
	return func(d *Decoder) {
		d.maxBytes = n
	}
}

// WithFormats restricts the accepted formats (e.g. "png", "jpeg", "tiff").
// An empty list accepts every registered format.
func WithFormats(formats ...string) DecoderOption {
	return func(d *Decoder) {
		d.formats = formats
	}
}

// NewDecoder creates a Decoder accepting DefaultFormats with no size limit.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{formats: DefaultFormats}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode converts data into a PixelGrid. Every failure wraps model.ErrDecode.
func (d *Decoder) Decode(data []byte) (PixelGrid, string, error) {
	if len(data) == 0 {
		return PixelGrid{}, "", fmt.Errorf("%w: %w", model.ErrDecode, errEmptyImage)
	}
	if d.maxBytes > 0 && int64(len(data)) > d.maxBytes {
		return PixelGrid{}, "", fmt.Errorf("%w: %d bytes exceeds limit of %d", model.ErrDecode, len(data), d.maxBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return PixelGrid{}, "", fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	if len(d.formats) > 0 && !slices.Contains(d.formats, format) {
		return PixelGrid{}, format, fmt.Errorf("%w: format %q is not accepted", model.ErrDecode, format)
	}
	if img.Bounds().Empty() {
		return PixelGrid{}, format, fmt.Errorf("%w: %w", model.ErrDecode, errEmptyImage)
	}

	return FromImage(img), format, nil
}

// Format reports the format of data without decoding pixels.
func Format(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	return format, nil
}
