package imaging

import (
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/scratchindex/internal/model"
)

// exifTimeLayout is the DateTime layout defined by the EXIF standard.
const exifTimeLayout = "2006:01:02 15:04:05"

// ReadCaptureInfo extracts camera make, model and capture time from EXIF data.
// Images without EXIF (PNG screenshots, synthetic test images) yield a zero
// CaptureInfo and no error; metadata is informational only.
func ReadCaptureInfo(data []byte) model.CaptureInfo {
	var info model.CaptureInfo

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return info
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return info
	}

	for _, entry := range entries {
		value := strings.Trim(strings.TrimSpace(entry.Formatted), "\"\x00")
		switch entry.TagName {
		case "Make":
			info.CameraMake = value
		case "Model":
			info.CameraModel = value
		case "DateTimeOriginal":
			if t, err := time.Parse(exifTimeLayout, value); err == nil {
				info.CapturedAt = t
			}
		case "DateTime":
			if info.CapturedAt.IsZero() {
				if t, err := time.Parse(exifTimeLayout, value); err == nil {
					info.CapturedAt = t
				}
			}
		}
	}

	return info
}
