package icons

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxIconDimension is the maximum width or height we'll decode
	MaxIconDimension = 4096

	// MaxIconPixels is the maximum total pixels (width * height) we'll decode
	MaxIconPixels = 16_000_000 // ~16MP, ~64MB in RGBA
)

// ErrImageTooLarge is returned for images whose dimensions exceed the decode limits.
var ErrImageTooLarge = errors.New("image dimensions exceed limits")

// Dimensions holds image width and height
type Dimensions struct {
	Width  int
	Height int
}

// GetDimensions returns image dimensions without fully decoding the image
func GetDimensions(data []byte) (Dimensions, string, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, "", fmt.Errorf("unrecognized image: %w", err)
	}
	return Dimensions{Width: config.Width, Height: config.Height}, format, nil
}

// Render decodes an icon and scales it to fit a size x size box, returning
// PNG bytes. Images smaller than the box keep their size.
func Render(data []byte, size int) ([]byte, error) {
	dims, format, err := GetDimensions(data)
	if err != nil {
		return nil, err
	}

	if dims.Width > MaxIconDimension || dims.Height > MaxIconDimension ||
		dims.Width*dims.Height > MaxIconPixels {
		return nil, fmt.Errorf("%w: %s %dx%d", ErrImageTooLarge, format, dims.Width, dims.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	if dims.Width > size || dims.Height > size {
		img = imaging.Fit(img, size, size, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode icon: %w", err)
	}
	return buf.Bytes(), nil
}

