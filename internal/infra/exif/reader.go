package exif

import (
	"bytes"
	"fmt"

	"github.com/rwcarlsen/goexif/exif"

	domain "github.com/veritasai/veritas-claims/internal/domain/documents"
)

// Reader extracts the EXIF fields the forensic checklist cross-references
// (capture time, device model, GPS). It never fails: unreadable metadata
// becomes a warning, which is itself a tampering signal for the model.
type Reader struct{}

func NewReader() *Reader { return &Reader{} }

func (Reader) Read(data []byte) domain.ImageMetadata {
	meta := domain.ImageMetadata{Warnings: []string{}}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		meta.Warnings = append(meta.Warnings, "No EXIF metadata found.")
		return meta
	}

	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if v, err := tag.StringVal(); err == nil {
			meta.DateTimeOriginal = v
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if v, err := tag.StringVal(); err == nil {
			meta.CameraModel = v
		}
	}
	if lat, long, err := x.LatLong(); err == nil {
		meta.GPSInfo = fmt.Sprintf("%.6f, %.6f", lat, long)
	}

	if meta.DateTimeOriginal == "" && meta.CameraModel == "" && meta.GPSInfo == "" {
		meta.Warnings = append(meta.Warnings, "EXIF present but carries no capture time, device model or GPS data.")
	}
	return meta
}
