// Package dataset prepares the hard-hat dataset for YOLO training.
//
// Raw data is Pascal VOC: one XML annotation per image. The tools here
// convert annotations to YOLO text labels, count instances per class, split
// the images into train/val/test and write the data.yaml that the trainer reads.
package dataset

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/hardhat/models"
	"github.com/nvr-ai/hardhat/util"
)

// ErrNoAnnotations is returned when a directory holds no XML annotations.
var ErrNoAnnotations = errors.New("no XML annotation files found")

// Annotation is a Pascal VOC annotation file.
type Annotation struct {
	XMLName  xml.Name `xml:"annotation"`
	Filename string   `xml:"filename"`
	Size     VOCSize  `xml:"size"`
	Objects  []Object `xml:"object"`
}

// VOCSize is the image size recorded in the annotation.
type VOCSize struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

// Object is one labelled box.
type Object struct {
	Name   string `xml:"name"`
	BndBox BndBox `xml:"bndbox"`
}

// BndBox is a box in pixel coordinates.
type BndBox struct {
	XMin float64 `xml:"xmin"`
	YMin float64 `xml:"ymin"`
	XMax float64 `xml:"xmax"`
	YMax float64 `xml:"ymax"`
}

// DecodeVOC reads an annotation from r.
func DecodeVOC(r io.Reader) (*Annotation, error) {
	ann := &Annotation{}
	if err := xml.NewDecoder(r).Decode(ann); err != nil {
		return nil, errors.Wrap(err, "failed to decode VOC annotation")
	}
	for i := range ann.Objects {
		ann.Objects[i].Name = strings.TrimSpace(ann.Objects[i].Name)
	}
	return ann, nil
}

// ParseVOC reads the annotation file at path.
func ParseVOC(path string) (*Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	ann, err := DecodeVOC(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return ann, nil
}

// ToYOLO converts ann to YOLO label lines of the form
// "<class> <x_center> <y_center> <width> <height>", normalised by the image
// size and printed with six decimals.
//
// Returns:
//   - []string: One line per object whose class is in classes, in file order.
//   - []string: Names of the objects that were skipped because their class is unknown.
//   - error: An error if the annotation has no usable image size.
func ToYOLO(ann *Annotation, classes *models.OutputClassSet) ([]string, []string, error) {
	if ann.Size.Width <= 0 || ann.Size.Height <= 0 {
		return nil, nil, errors.Errorf("invalid image size %dx%d", ann.Size.Width, ann.Size.Height)
	}

	dw := 1.0 / float64(ann.Size.Width)
	dh := 1.0 / float64(ann.Size.Height)

	lines := make([]string, 0, len(ann.Objects))
	var skipped []string
	for _, obj := range ann.Objects {
		id, err := classes.Index(obj.Name)
		if err != nil {
			skipped = append(skipped, obj.Name)
			continue
		}

		b := obj.BndBox
		xc := (b.XMin + b.XMax) / 2.0 * dw
		yc := (b.YMin + b.YMax) / 2.0 * dh
		w := (b.XMax - b.XMin) * dw
		h := (b.YMax - b.YMin) * dh
		lines = append(lines, fmt.Sprintf("%d %.6f %.6f %.6f %.6f", id, xc, yc, w, h))
	}
	return lines, skipped, nil
}

// ConvertStats summarises a ConvertDir run.
type ConvertStats struct {
	Files   int
	Labels  int
	Skipped int
}

// ConvertDir converts every *.xml file in src to <name>.txt in dst.
//
// Lines are joined with "\n" without a trailing newline, so an annotation
// with no known objects produces an empty file. Objects of unknown classes
// are logged and skipped.
func ConvertDir(src, dst string, classes *models.OutputClassSet, logger *zap.Logger) (ConvertStats, error) {
	var stats ConvertStats

	files, err := util.ListFiles(src, ".xml")
	if err != nil {
		return stats, err
	}
	if len(files) == 0 {
		return stats, errors.Wrapf(ErrNoAnnotations, "in %s", src)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return stats, errors.Wrapf(err, "failed to create %s", dst)
	}

	for _, path := range files {
		ann, err := ParseVOC(path)
		if err != nil {
			return stats, err
		}
		lines, skipped, err := ToYOLO(ann, classes)
		if err != nil {
			return stats, errors.Wrapf(err, "%s", path)
		}
		for _, name := range skipped {
			logger.Warn("class not in mapping, skipping", zap.String("class", name), zap.String("file", path))
		}

		out := filepath.Join(dst, util.Stem(path)+".txt")
		if err := os.WriteFile(out, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
			return stats, errors.Wrapf(err, "failed to write %s", out)
		}

		stats.Files++
		stats.Labels += len(lines)
		stats.Skipped += len(skipped)
	}

	logger.Info("conversion complete",
		zap.String("dst", dst),
		zap.Int("files", stats.Files),
		zap.Int("labels", stats.Labels),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}
