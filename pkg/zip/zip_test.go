package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssetsRoundTrip(t *testing.T) {
	archive := ArchiveAssets([]Asset{
		{Filename: "prompt", MIME: "text/plain", Data: []byte("a quiet harbor")},
		{Filename: "input", MIME: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}},
		{Filename: "generated.png", MIME: "image/png", Data: []byte{0x89, 0x50}},
	})
	if len(archive) == 0 {
		t.Fatalf("empty archive")
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		names[f.Name] = data
	}

	if string(names["prompt.txt"]) != "a quiet harbor" {
		t.Fatalf("prompt entry = %q", names["prompt.txt"])
	}
	if _, ok := names["input.jpg"]; !ok {
		t.Fatalf("missing input.jpg, have %v", keys(names))
	}
	if _, ok := names["generated.png"]; !ok {
		t.Fatalf("missing generated.png, have %v", keys(names))
	}
}

func TestEntryNameKeepsExplicitExtension(t *testing.T) {
	cases := []struct {
		name  string
		asset Asset
		want  string
	}{
		{"mime derived", Asset{Filename: "input", MIME: "image/webp"}, "input.webp"},
		{"explicit wins", Asset{Filename: "result.png", MIME: "image/jpeg"}, "result.png"},
		{"unknown mime", Asset{Filename: "blob", MIME: "application/octet-stream"}, "blob"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.asset.EntryName(); got != tc.want {
				t.Fatalf("EntryName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
