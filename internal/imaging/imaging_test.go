package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func testPNG(t *testing.T, width, height int, fill color.RGBA) Image {
	t.Helper()
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			canvas.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return Image{MIME: "image/png", Data: buf.Bytes()}
}

func TestDataURLRoundTrip(t *testing.T) {
	src := testPNG(t, 4, 4, color.RGBA{R: 200, G: 40, B: 40, A: 255})

	url := src.DataURL()
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("DataURL() prefix = %q", url[:30])
	}

	parsed, err := ParseDataURL(url)
	if err != nil {
		t.Fatalf("ParseDataURL() error = %v", err)
	}
	if parsed.MIME != src.MIME {
		t.Fatalf("MIME = %q, want %q", parsed.MIME, src.MIME)
	}
	if !bytes.Equal(parsed.Data, src.Data) {
		t.Fatalf("payload changed across round trip")
	}
}

func TestParseDataURLRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing prefix", input: "image/png;base64,AAAA"},
		{name: "missing comma", input: "data:image/png;base64"},
		{name: "not base64 encoded", input: "data:image/png,rawbytes"},
		{name: "invalid payload", input: "data:image/png;base64,@@@@"},
		{name: "empty", input: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseDataURL(tc.input); err == nil {
				t.Fatalf("ParseDataURL(%q) = nil error, want failure", tc.input)
			}
		})
	}
}

func TestFromBase64RejectsEmptyPayload(t *testing.T) {
	if _, err := FromBase64("", "image/png"); err == nil {
		t.Fatalf("FromBase64 with empty payload should fail")
	}
}

func TestSniffMIME(t *testing.T) {
	pngImage := testPNG(t, 2, 2, color.RGBA{A: 255})

	tests := []struct {
		name     string
		data     []byte
		filename string
		want     string
	}{
		{name: "png by content", data: pngImage.Data, filename: "noext", want: "image/png"},
		{name: "extension fallback", data: []byte("not an image"), filename: "photo.JPG", want: "image/jpeg"},
		{name: "unknown", data: []byte("not an image"), filename: "notes.txt", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SniffMIME(tc.data, tc.filename); got != tc.want {
				t.Fatalf("SniffMIME() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDimensions(t *testing.T) {
	src := testPNG(t, 7, 3, color.RGBA{G: 128, A: 255})
	w, h, err := Dimensions(src)
	if err != nil {
		t.Fatalf("Dimensions() error = %v", err)
	}
	if w != 7 || h != 3 {
		t.Fatalf("Dimensions() = %dx%d, want 7x3", w, h)
	}
}

func TestDimensionsRejectsGarbage(t *testing.T) {
	if _, _, err := Dimensions(Image{MIME: "image/png", Data: []byte("junk")}); err == nil {
		t.Fatalf("Dimensions on junk should fail")
	}
}
