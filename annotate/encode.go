package annotate

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"

	"github.com/pkg/errors"
)

// DataURIPrefix starts every URI returned by EncodeDataURI.
const DataURIPrefix = "data:image/jpeg;base64,"

// EncodeJPEG encodes img as a JPEG of the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "failed to encode jpeg")
	}
	return buf.Bytes(), nil
}

// EncodeDataURI encodes img as a base64 JPEG data URI.
func EncodeDataURI(img image.Image, quality int) (string, error) {
	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return "", err
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
}
