// imagenorm.go - Canonicalizes uploaded receipt images

package processor

import (
	"encoding/base64"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrMissingImage means neither a multipart file nor a JSON image field was
// supplied. Surfaced as HTTP 400; nothing is sent to the model provider.
var ErrMissingImage = errors.New("processor: no image supplied")

// ErrInvalidImage means the supplied payload is not decodable base64.
var ErrInvalidImage = errors.New("processor: image payload is not valid base64")

// NormalizedImage is the canonical form of an uploaded receipt image:
// decoded bytes plus a MIME type. Providers that need base64 encode from
// Data, which may not be the submitted bytes once enhancement runs.
type NormalizedImage struct {
	Data     []byte
	MIMEType string
}

var dataURIPrefix = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+);base64,`)

// NormalizeBase64Payload canonicalizes a JSON image field. The string may be
// raw base64 or a data:<mime>;base64,<data> URI.
func NormalizeBase64Payload(payload string) (*NormalizedImage, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrMissingImage
	}

	mimeType := "image/jpeg"
	if m := dataURIPrefix.FindStringSubmatch(payload); m != nil {
		mimeType = m[1]
		payload = payload[len(m[0]):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidImage
	}
	if len(data) == 0 {
		return nil, ErrMissingImage
	}

	return &NormalizedImage{
		Data:     data,
		MIMEType: mimeType,
	}, nil
}

// NormalizeFileUpload canonicalizes a multipart file upload.
func NormalizeFileUpload(data []byte, contentType, filename string) (*NormalizedImage, error) {
	if len(data) == 0 {
		return nil, ErrMissingImage
	}

	mimeType := contentType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimeTypeFromExtension(filename)
	}

	return &NormalizedImage{
		Data:     data,
		MIMEType: mimeType,
	}, nil
}

func mimeTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
