package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// Image is a decoded-from-transport picture: raw bytes plus their MIME type.
// The Base64 payload and data-URL forms exist only at the JSON boundary.
type Image struct {
	MIME string
	Data []byte
}

const dataURLPrefix = "data:"

var supportedMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var extensionMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

func (img Image) IsZero() bool {
	return len(img.Data) == 0
}

func (img Image) Bytes() int64 {
	return int64(len(img.Data))
}

// Base64 returns the payload without a data-URL prefix.
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURL returns the inline form usable directly as an image source.
func (img Image) DataURL() string {
	return fmt.Sprintf("%s%s;base64,%s", dataURLPrefix, img.MIME, img.Base64())
}

// Extension returns the canonical file extension for the image's MIME type.
func (img Image) Extension() string {
	if ext, ok := supportedMIME[img.MIME]; ok {
		return ext
	}
	return ".bin"
}

// FromBase64 builds an Image from a bare Base64 payload and MIME type.
func FromBase64(payload, mime string) (Image, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return Image{}, fmt.Errorf("imaging: decode base64: %w", err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("imaging: empty payload")
	}
	if mime == "" {
		mime = SniffMIME(data, "")
	}
	return Image{MIME: mime, Data: data}, nil
}

// ParseDataURL is the strict inverse of DataURL. Only base64-encoded data
// URLs are accepted.
func ParseDataURL(s string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), dataURLPrefix)
	if !ok {
		return Image{}, fmt.Errorf("imaging: not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("imaging: malformed data URL")
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return Image{}, fmt.Errorf("imaging: data URL is not base64 encoded")
	}
	return FromBase64(payload, mime)
}

// SniffMIME detects an image MIME type from content, falling back to the
// filename extension when sniffing is inconclusive. Returns "" when the data
// does not look like a supported raster format.
func SniffMIME(data []byte, filename string) string {
	detected := http.DetectContentType(data)
	if _, ok := supportedMIME[detected]; ok {
		return detected
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		if mime, ok := extensionMIME[ext]; ok {
			return mime
		}
	}
	return ""
}

// IsSupportedMIME reports whether the MIME type belongs to the raster set the
// studio accepts.
func IsSupportedMIME(mime string) bool {
	_, ok := supportedMIME[mime]
	return ok
}

// Decode parses the raw bytes into a pixel image for editing.
func Decode(img Image) (image.Image, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode %s: %w", img.MIME, err)
	}
	return decoded, nil
}

// EncodePNG bakes a pixel image back into transport form. Edited images are
// always re-encoded as PNG regardless of the source format.
func EncodePNG(m image.Image) (Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return Image{}, fmt.Errorf("imaging: encode png: %w", err)
	}
	return Image{MIME: "image/png", Data: buf.Bytes()}, nil
}

// Dimensions reads the pixel size without decoding the full image.
func Dimensions(img Image) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return 0, 0, fmt.Errorf("imaging: read dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
