package imageio

import (
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/grapholex/grapholex/internal/model"
)

// namespace scopes every identifier derived by this package.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://grapholex.dev/signature"))

// Fingerprint returns the hex SHA3-256 digest of the raw image bytes.
func Fingerprint(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ImageID derives a stable identifier from the image content and the
// declared physical size. The same upload with a different declared size
// is a different image.
func ImageID(data []byte, widthMM, heightMM float64) string {
	name := Fingerprint(data) + "|" + formatMM(widthMM) + "x" + formatMM(heightMM)
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// CalibrationID derives a stable identifier for a calibration of imageID
// with the given crop and declared size.
func CalibrationID(imageID string, crop model.CropBox, widthMM, heightMM float64) string {
	name := imageID + "|" +
		strconv.Itoa(crop.Left) + "," + strconv.Itoa(crop.Top) + "," +
		strconv.Itoa(crop.Width) + "," + strconv.Itoa(crop.Height) + "|" +
		formatMM(widthMM) + "x" + formatMM(heightMM)
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
