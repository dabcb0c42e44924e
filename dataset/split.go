package dataset

import (
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/hardhat/util"
)

// DefaultSeed makes splits reproducible across runs.
const DefaultSeed uint64 = 42

// Partition names, used as directory names under images/ and labels/.
const (
	PartTrain = "train"
	PartVal   = "val"
	PartTest  = "test"
)

// Ratios are the fractions of the dataset assigned to each partition.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

// DefaultRatios is an 80/10/10 split.
var DefaultRatios = Ratios{Train: 0.80, Val: 0.10, Test: 0.10}

// Validate checks that every ratio is in [0, 1) and that they sum to 1.
func (r Ratios) Validate() error {
	for _, v := range []float64{r.Train, r.Val, r.Test} {
		if v < 0 || v >= 1 {
			return errors.Errorf("ratios must be in [0, 1), got %+v", r)
		}
	}
	if math.Abs(r.Train+r.Val+r.Test-1) > 1e-9 {
		return errors.Errorf("ratios must sum to 1, got %+v", r)
	}
	return nil
}

// Partition is the result of Split.
type Partition struct {
	Train []string
	Val   []string
	Test  []string
}

// Parts returns the partitions keyed by directory name.
func (p Partition) Parts() map[string][]string {
	return map[string][]string{PartTrain: p.Train, PartVal: p.Val, PartTest: p.Test}
}

// Split shuffles files with seed and divides them in two steps: first the
// test share is taken from the whole set, then the validation share
// Val/(Train+Val) is taken from what remains. Each share is rounded up.
//
// The same files and seed always give the same partition. files is not
// modified.
func Split(files []string, ratios Ratios, seed uint64) (Partition, error) {
	if err := ratios.Validate(); err != nil {
		return Partition{}, err
	}

	rest, test := holdout(files, ratios.Test, seed)

	var valShare float64
	if ratios.Train+ratios.Val > 0 {
		valShare = ratios.Val / (ratios.Train + ratios.Val)
	}
	train, val := holdout(rest, valShare, seed)

	return Partition{Train: train, Val: val, Test: test}, nil
}

// holdout shuffles a copy of files and moves ceil(share*n) of them into the
// second result.
func holdout(files []string, share float64, seed uint64) ([]string, []string) {
	shuffled := slices.Clone(files)
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := int(math.Ceil(share * float64(len(shuffled))))
	n = min(n, len(shuffled))
	return shuffled[n:], shuffled[:n]
}

// CopyStats summarises a CopyPartition run.
type CopyStats struct {
	Images        int
	Labels        int
	MissingLabels int
	Failed        int
}

// CopyPartition copies images into <dst>/images/<part> and their labels from
// labelsDir into <dst>/labels/<part>.
//
// A missing label is logged as a warning and the image is still copied. A
// failed copy is logged and skipped. Only failing to create the destination
// directories is returned as an error.
func CopyPartition(part string, images []string, labelsDir, dst string, logger *zap.Logger) (CopyStats, error) {
	var stats CopyStats

	imgDst := filepath.Join(dst, "images", part)
	lblDst := filepath.Join(dst, "labels", part)
	for _, dir := range []string{imgDst, lblDst} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, errors.Wrapf(err, "failed to create %s", dir)
		}
	}

	for _, img := range images {
		if err := copyFile(img, filepath.Join(imgDst, filepath.Base(img))); err != nil {
			logger.Error("failed to copy image", zap.String("file", img), zap.Error(err))
			stats.Failed++
			continue
		}
		stats.Images++

		label := filepath.Join(labelsDir, util.Stem(img)+".txt")
		if _, err := os.Stat(label); err != nil {
			logger.Warn("label file not found", zap.String("image", img))
			stats.MissingLabels++
			continue
		}
		if err := copyFile(label, filepath.Join(lblDst, filepath.Base(label))); err != nil {
			logger.Error("failed to copy label", zap.String("file", label), zap.Error(err))
			stats.Failed++
			continue
		}
		stats.Labels++
	}

	logger.Info("partition copied",
		zap.String("part", part),
		zap.Int("images", stats.Images),
		zap.Int("labels", stats.Labels),
		zap.Int("missing_labels", stats.MissingLabels),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
