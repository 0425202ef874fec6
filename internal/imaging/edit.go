package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"imagestudio/internal/domain/editcfg"
)

// ApplyEdits bakes the edit contract into a new PNG image. Operations apply
// in a fixed order: crop, rotate, flip, grayscale, brightness.
func ApplyEdits(src Image, edit editcfg.EditJSON) (Image, error) {
	edit.Normalize()
	if err := edit.Validate(); err != nil {
		return Image{}, fmt.Errorf("imaging: invalid edit: %w", err)
	}

	decoded, err := Decode(src)
	if err != nil {
		return Image{}, err
	}
	canvas := toRGBA(decoded)

	if edit.Crop != nil {
		canvas, err = crop(canvas, *edit.Crop)
		if err != nil {
			return Image{}, err
		}
	}
	switch edit.Rotate {
	case 90:
		canvas = rotate90(canvas)
	case 180:
		canvas = rotate90(rotate90(canvas))
	case 270:
		canvas = rotate90(rotate90(rotate90(canvas)))
	}
	if edit.FlipH {
		canvas = flipHorizontal(canvas)
	}
	if edit.FlipV {
		canvas = flipVertical(canvas)
	}
	if edit.Grayscale {
		grayscale(canvas)
	}
	if edit.Brightness != 0 {
		adjustBrightness(canvas, edit.Brightness)
	}

	return EncodePNG(canvas)
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

func crop(src *image.RGBA, c editcfg.CropConfig) (*image.RGBA, error) {
	rect := image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
	if !rect.In(src.Bounds()) {
		return nil, fmt.Errorf("imaging: crop %v exceeds image bounds %v", rect, src.Bounds())
	}
	dst := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}

// rotate90 turns the image a quarter turn clockwise.
func rotate90(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(h-1-y, x, src.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return dst
}

func flipHorizontal(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(w-1-x, y, src.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return dst
}

func flipVertical(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(x, h-1-y, src.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return dst
}

func grayscale(img *image.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
}

// adjustBrightness shifts every channel by delta percent of full scale.
func adjustBrightness(img *image.RGBA, delta int) {
	shift := delta * 255 / 100
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = clampChannel(int(img.Pix[i]) + shift)
			img.Pix[i+1] = clampChannel(int(img.Pix[i+1]) + shift)
			img.Pix[i+2] = clampChannel(int(img.Pix[i+2]) + shift)
		}
	}
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
