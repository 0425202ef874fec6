package editcfg

import (
	"encoding/json"
	"fmt"
)

// CropConfig selects a sub-rectangle of the source image in pixels.
type CropConfig struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// EditJSON is the declarative contract the editor submits for preview and
// save. All fields are optional; the zero value is the identity edit.
type EditJSON struct {
	Version    string      `json:"version"`
	Crop       *CropConfig `json:"crop,omitempty"`
	Rotate     int         `json:"rotate"`
	FlipH      bool        `json:"flip_h"`
	FlipV      bool        `json:"flip_v"`
	Grayscale  bool        `json:"grayscale"`
	Brightness int         `json:"brightness"`
}

var allowedRotations = map[int]struct{}{
	0:   {},
	90:  {},
	180: {},
	270: {},
}

const (
	// DefaultEditVersion represents the schema version persisted for edits.
	DefaultEditVersion = "2025-01"
	// MinBrightness is the strongest darkening adjustment accepted.
	MinBrightness = -100
	// MaxBrightness is the strongest lightening adjustment accepted.
	MaxBrightness = 100
)

// Normalize folds the rotation into [0,360) and clamps brightness so a
// well-meaning client never fails validation on range issues.
func (e *EditJSON) Normalize() {
	if e == nil {
		return
	}
	if e.Version == "" {
		e.Version = DefaultEditVersion
	}
	e.Rotate = ((e.Rotate % 360) + 360) % 360
	if e.Brightness < MinBrightness {
		e.Brightness = MinBrightness
	}
	if e.Brightness > MaxBrightness {
		e.Brightness = MaxBrightness
	}
}

// Validate ensures the edit contract can be applied to an image.
func (e EditJSON) Validate() error {
	if _, ok := allowedRotations[e.Rotate]; !ok {
		return fmt.Errorf("rotate must be one of 0, 90, 180, 270")
	}
	if e.Brightness < MinBrightness || e.Brightness > MaxBrightness {
		return fmt.Errorf("brightness must be between %d and %d", MinBrightness, MaxBrightness)
	}
	if e.Crop != nil {
		if e.Crop.Width <= 0 || e.Crop.Height <= 0 {
			return fmt.Errorf("crop dimensions must be positive")
		}
		if e.Crop.X < 0 || e.Crop.Y < 0 {
			return fmt.Errorf("crop origin must not be negative")
		}
	}
	return nil
}

// IsIdentity reports whether applying the edit would leave the pixels
// untouched apart from re-encoding.
func (e EditJSON) IsIdentity() bool {
	return e.Crop == nil && e.Rotate == 0 && !e.FlipH && !e.FlipV && !e.Grayscale && e.Brightness == 0
}

func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
