// imageprocessor.go - Image preprocessing for better extraction accuracy

package processor

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// EnhanceForOCR resizes and enhances a receipt image before sending it to the
// model: large photos get downscaled to maxDimension, then sharpened,
// contrast-boosted and converted to grayscale. Returns the processed JPEG
// bytes and its MIME type. Callers fall back to the original bytes on error.
func EnhanceForOCR(data []byte, maxDimension int) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxDimension || height > maxDimension {
		if width > height {
			img = imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
		}
	}

	img = imaging.Sharpen(img, 2.5)
	img = imaging.AdjustContrast(img, 40)
	img = imaging.AdjustBrightness(img, 15)
	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.AdjustGamma(img, 1.1)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, "", fmt.Errorf("failed to encode processed image: %w", err)
	}

	return buf.Bytes(), "image/jpeg", nil
}
