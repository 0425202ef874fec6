package editcfg

import "testing"

func TestEditJSONNormalizeDefaults(t *testing.T) {
	e := &EditJSON{}
	e.Normalize()

	if e.Version != DefaultEditVersion {
		t.Fatalf("Version = %q, want %q", e.Version, DefaultEditVersion)
	}
	if e.Rotate != 0 {
		t.Fatalf("Rotate = %d, want 0", e.Rotate)
	}
	if !e.IsIdentity() {
		t.Fatalf("zero edit should be identity")
	}
}

func TestEditJSONNormalizeFoldsRotationAndClampsBrightness(t *testing.T) {
	e := &EditJSON{Rotate: -90, Brightness: 250}
	e.Normalize()

	if e.Rotate != 270 {
		t.Fatalf("Rotate = %d, want 270", e.Rotate)
	}
	if e.Brightness != MaxBrightness {
		t.Fatalf("Brightness clamp = %d, want %d", e.Brightness, MaxBrightness)
	}
}

func TestEditJSONValidate(t *testing.T) {
	tests := []struct {
		name    string
		edit    EditJSON
		wantErr bool
	}{
		{name: "identity", edit: EditJSON{}},
		{name: "quarter turn with flip", edit: EditJSON{Rotate: 90, FlipH: true}},
		{name: "odd rotation", edit: EditJSON{Rotate: 45}, wantErr: true},
		{name: "empty crop", edit: EditJSON{Crop: &CropConfig{Width: 0, Height: 10}}, wantErr: true},
		{name: "negative crop origin", edit: EditJSON{Crop: &CropConfig{X: -1, Width: 10, Height: 10}}, wantErr: true},
		{name: "valid crop", edit: EditJSON{Crop: &CropConfig{X: 2, Y: 2, Width: 10, Height: 10}}},
		{name: "brightness out of range", edit: EditJSON{Brightness: 180}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.edit.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("Validate() = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}
