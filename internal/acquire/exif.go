package acquire

import (
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/plantdoc/internal/model"
)

// exifTimeLayout is the EXIF DateTime format.
const exifTimeLayout = "2006:01:02 15:04:05"

// ExtractMetadata reads the EXIF tags that matter for a leaf photo: when it
// was taken, which camera took it, what software edited it, and whether it
// carries a GPS position. It returns nil when no EXIF block is present or
// the block cannot be parsed; metadata is informational and never blocks a
// diagnosis.
func ExtractMetadata(data []byte) *model.ImageMetadata {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	meta := &model.ImageMetadata{}
	found := false
	for _, entry := range entries {
		value := strings.Trim(strings.TrimSpace(entry.Formatted), "\x00")
		if value == "" {
			continue
		}

		switch entry.TagName {
		case "Make":
			meta.CameraMake = value
			found = true
		case "Model":
			meta.CameraModel = value
			found = true
		case "Software":
			meta.Software = value
			found = true
		case "DateTimeOriginal":
			if t, err := time.Parse(exifTimeLayout, value); err == nil {
				meta.CapturedAt = t
				found = true
			}
		case "DateTime":
			// DateTimeOriginal wins when both are present.
			if meta.CapturedAt.IsZero() {
				if t, err := time.Parse(exifTimeLayout, value); err == nil {
					meta.CapturedAt = t
					found = true
				}
			}
		case "GPSLatitude", "GPSLongitude":
			meta.HasGPS = true
			found = true
		}
	}

	if !found {
		return nil
	}
	return meta
}
