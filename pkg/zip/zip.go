// Package zip bundles a session's prompt and images into one downloadable
// archive.
package zip

import (
	"archive/zip"
	"bytes"
	"path"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

var mimeExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"text/plain": ".txt",
}

// ArchiveAssets writes the assets into an in-memory zip. Assets whose
// filename carries no extension get one derived from the MIME type.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.EntryName())
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}

// EntryName returns the archive entry name, appending a MIME-derived
// extension when the filename has none.
func (a Asset) EntryName() string {
	if path.Ext(a.Filename) != "" {
		return a.Filename
	}
	if ext, ok := mimeExtensions[a.MIME]; ok {
		return a.Filename + ext
	}
	return a.Filename
}
