package imageio

import (
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// EXIF ResolutionUnit values.
const (
	resolutionUnitInch       = 2
	resolutionUnitCentimeter = 3
)

// Resolution is the scanner resolution recorded in image metadata.
type Resolution struct {
	XPxPerMM float64
	YPxPerMM float64
}

// PxPerMM returns the mean of both axes.
func (r Resolution) PxPerMM() float64 {
	return (r.XPxPerMM + r.YPxPerMM) / 2
}

// ReadResolution extracts XResolution, YResolution and ResolutionUnit from
// EXIF metadata and converts them to pixels per millimeter. It returns
// false when the image carries no usable resolution tags, which is the
// normal case for PNG scans.
func ReadResolution(data []byte) (Resolution, bool) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return Resolution{}, false
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return Resolution{}, false
	}

	var x, y float64
	unit := resolutionUnitInch
	for _, entry := range entries {
		switch entry.TagName {
		case "XResolution":
			x = parseRational(entry.Formatted)
		case "YResolution":
			y = parseRational(entry.Formatted)
		case "ResolutionUnit":
			if v := int(parseRational(entry.Formatted)); v != 0 {
				unit = v
			}
		}
	}
	if x <= 0 {
		return Resolution{}, false
	}
	if y <= 0 {
		y = x
	}

	var perMM float64
	switch unit {
	case resolutionUnitInch:
		perMM = 1 / 25.4
	case resolutionUnitCentimeter:
		perMM = 1 / 10.0
	default:
		return Resolution{}, false
	}
	return Resolution{XPxPerMM: x * perMM, YPxPerMM: y * perMM}, true
}

// parseRational reads the formatted form of an EXIF number, such as
// "300/1", "[300/1]" or "2".
func parseRational(s string) float64 {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
