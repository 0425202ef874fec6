package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"imagestudio/internal/domain/editcfg"
)

// gradientPNG builds a fixture whose pixel (x, y) is uniquely identifiable,
// so position-changing edits can be verified exactly.
func gradientPNG(t *testing.T, width, height int) Image {
	t.Helper()
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			canvas.SetRGBA(x, y, color.RGBA{R: uint8(10 + x*20), G: uint8(10 + y*20), B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return Image{MIME: "image/png", Data: buf.Bytes()}
}

func pixelAt(t *testing.T, img Image, x, y int) color.RGBA {
	t.Helper()
	decoded, err := Decode(img)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return color.RGBAModel.Convert(decoded.At(x, y)).(color.RGBA)
}

func TestApplyEditsIdentityReencodesAsPNG(t *testing.T) {
	src := gradientPNG(t, 3, 3)
	out, err := ApplyEdits(src, editcfg.EditJSON{})
	if err != nil {
		t.Fatalf("ApplyEdits() error = %v", err)
	}
	if out.MIME != "image/png" {
		t.Fatalf("MIME = %q, want image/png", out.MIME)
	}
	if got, want := pixelAt(t, out, 1, 2), pixelAt(t, src, 1, 2); got != want {
		t.Fatalf("pixel (1,2) = %v, want %v", got, want)
	}
}

func TestApplyEditsCrop(t *testing.T) {
	src := gradientPNG(t, 4, 4)
	out, err := ApplyEdits(src, editcfg.EditJSON{Crop: &editcfg.CropConfig{X: 1, Y: 2, Width: 2, Height: 2}})
	if err != nil {
		t.Fatalf("ApplyEdits() error = %v", err)
	}
	w, h, err := Dimensions(out)
	if err != nil {
		t.Fatalf("Dimensions() error = %v", err)
	}
	if w != 2 || h != 2 {
		t.Fatalf("cropped size = %dx%d, want 2x2", w, h)
	}
	if got, want := pixelAt(t, out, 0, 0), pixelAt(t, src, 1, 2); got != want {
		t.Fatalf("crop origin pixel = %v, want %v", got, want)
	}
}

func TestApplyEditsCropOutOfBounds(t *testing.T) {
	src := gradientPNG(t, 4, 4)
	if _, err := ApplyEdits(src, editcfg.EditJSON{Crop: &editcfg.CropConfig{X: 3, Y: 3, Width: 4, Height: 4}}); err == nil {
		t.Fatalf("out-of-bounds crop should fail")
	}
}

func TestApplyEditsRotate90(t *testing.T) {
	src := gradientPNG(t, 3, 2)
	out, err := ApplyEdits(src, editcfg.EditJSON{Rotate: 90})
	if err != nil {
		t.Fatalf("ApplyEdits() error = %v", err)
	}
	w, h, err := Dimensions(out)
	if err != nil {
		t.Fatalf("Dimensions() error = %v", err)
	}
	if w != 2 || h != 3 {
		t.Fatalf("rotated size = %dx%d, want 2x3", w, h)
	}
	// Clockwise quarter turn sends (x, y) to (h-1-y, x).
	if got, want := pixelAt(t, out, 1, 0), pixelAt(t, src, 0, 0); got != want {
		t.Fatalf("rotated pixel = %v, want %v", got, want)
	}
}

func TestApplyEditsFlips(t *testing.T) {
	src := gradientPNG(t, 3, 3)

	horizontal, err := ApplyEdits(src, editcfg.EditJSON{FlipH: true})
	if err != nil {
		t.Fatalf("ApplyEdits(flip_h) error = %v", err)
	}
	if got, want := pixelAt(t, horizontal, 0, 1), pixelAt(t, src, 2, 1); got != want {
		t.Fatalf("flip_h pixel = %v, want %v", got, want)
	}

	vertical, err := ApplyEdits(src, editcfg.EditJSON{FlipV: true})
	if err != nil {
		t.Fatalf("ApplyEdits(flip_v) error = %v", err)
	}
	if got, want := pixelAt(t, vertical, 1, 0), pixelAt(t, src, 1, 2); got != want {
		t.Fatalf("flip_v pixel = %v, want %v", got, want)
	}
}

func TestApplyEditsGrayscale(t *testing.T) {
	src := gradientPNG(t, 2, 2)
	out, err := ApplyEdits(src, editcfg.EditJSON{Grayscale: true})
	if err != nil {
		t.Fatalf("ApplyEdits() error = %v", err)
	}
	px := pixelAt(t, out, 1, 1)
	if px.R != px.G || px.G != px.B {
		t.Fatalf("grayscale pixel has unequal channels: %v", px)
	}
}

func TestApplyEditsBrightness(t *testing.T) {
	src := gradientPNG(t, 2, 2)
	before := pixelAt(t, src, 0, 0)

	brighter, err := ApplyEdits(src, editcfg.EditJSON{Brightness: 40})
	if err != nil {
		t.Fatalf("ApplyEdits() error = %v", err)
	}
	after := pixelAt(t, brighter, 0, 0)
	if after.R <= before.R {
		t.Fatalf("brightness +40 did not raise red channel: before %d, after %d", before.R, after.R)
	}

	darker, err := ApplyEdits(src, editcfg.EditJSON{Brightness: -100})
	if err != nil {
		t.Fatalf("ApplyEdits() error = %v", err)
	}
	if px := pixelAt(t, darker, 0, 0); px.R != 0 || px.G != 0 || px.B != 0 {
		t.Fatalf("brightness -100 should clamp to black, got %v", px)
	}
}
