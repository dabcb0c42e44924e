// Command hardhat-data prepares the hard hat dataset and starts training runs.
//
// Usage:
//
//	hardhat-data convert [--src DIR] [--dst DIR]
//	hardhat-data count   [--src DIR]
//	hardhat-data split   [--images DIR] [--labels DIR] [--dst DIR] [--seed N] [--data-config FILE]
//	hardhat-data train   [--params FILE] [--root DIR] [--yolo PATH]
//
// Defaults come from the dataset section of config.yml.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/hardhat/config"
	"github.com/nvr-ai/hardhat/dataset"
	"github.com/nvr-ai/hardhat/logger"
	"github.com/nvr-ai/hardhat/models"
	"github.com/nvr-ai/hardhat/training"
	"github.com/nvr-ai/hardhat/util"
)

func main() {
	// Defaults are read before parsing so that they show up in --help.
	cfg, err := config.Load(os.Getenv("HARDHAT_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	d := cfg.Dataset

	parser := argparse.NewParser("hardhat-data", "Hard hat dataset preparation and training")
	logLevel := parser.String("l", "log-level", &argparse.Options{Help: "Log level", Default: "info"})

	convert := parser.NewCommand("convert", "Convert VOC XML annotations to YOLO labels")
	convertSrc := convert.String("s", "src", &argparse.Options{Help: "VOC annotations directory", Default: d.AnnotationsDir})
	convertDst := convert.String("d", "dst", &argparse.Options{Help: "YOLO labels directory", Default: d.LabelsDir})

	count := parser.NewCommand("count", "Count annotated instances per class")
	countSrc := count.String("s", "src", &argparse.Options{Help: "VOC annotations directory", Default: d.AnnotationsDir})

	split := parser.NewCommand("split", "Split images into train/val/test and copy them with their labels")
	splitImages := split.String("i", "images", &argparse.Options{Help: "Raw PNG images directory", Default: d.ImagesDir})
	splitLabels := split.String("b", "labels", &argparse.Options{Help: "YOLO labels directory", Default: d.LabelsDir})
	splitDst := split.String("d", "dst", &argparse.Options{Help: "Processed dataset directory", Default: d.ProcessedDir})
	splitSeed := split.Int("", "seed", &argparse.Options{Help: "Shuffle seed", Default: int(d.Seed)})
	splitDataConfig := split.String("", "data-config", &argparse.Options{Help: "Where to write data.yaml", Default: filepath.Join("config", "data.yaml")})

	train := parser.NewCommand("train", "Train a YOLO model from params.yaml")
	trainParams := train.String("p", "params", &argparse.Options{Help: "params.yaml path", Default: d.ParamsFile})
	trainRoot := train.String("r", "root", &argparse.Options{Help: "Project root", Default: d.Root})
	trainYolo := train.String("", "yolo", &argparse.Options{Help: "Trainer executable", Default: training.DefaultCommand})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: *logLevel, Console: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case convert.Happened():
		_, err = dataset.ConvertDir(*convertSrc, *convertDst, models.HardHatClasses, log)
	case count.Happened():
		err = runCount(*countSrc, log)
	case split.Happened():
		err = runSplit(*splitImages, *splitLabels, *splitDst, *splitDataConfig, uint64(*splitSeed), log)
	case train.Happened():
		err = runTrain(ctx, *trainParams, *trainRoot, *trainYolo, log)
	}
	if err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func runCount(src string, log *zap.Logger) error {
	counts, err := dataset.CountDir(src)
	if err != nil {
		return err
	}
	log.Info("instance counts",
		zap.Int("person", counts.Person),
		zap.Int("helmet", counts.Helmet),
		zap.Int("head", counts.Head),
		zap.Int("other", counts.Other),
	)
	return nil
}

func runSplit(imagesDir, labelsDir, dst, dataConfig string, seed uint64, log *zap.Logger) error {
	files, err := util.ListFiles(imagesDir, ".png")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Errorf("no PNG images found in %s", imagesDir)
	}

	p, err := dataset.Split(files, dataset.DefaultRatios, seed)
	if err != nil {
		return err
	}
	log.Info("split",
		zap.Int("total", len(files)),
		zap.Int("train", len(p.Train)),
		zap.Int("val", len(p.Val)),
		zap.Int("test", len(p.Test)),
	)

	for _, part := range []string{dataset.PartTrain, dataset.PartVal, dataset.PartTest} {
		if _, err := dataset.CopyPartition(part, p.Parts()[part], labelsDir, dst, log); err != nil {
			return err
		}
	}

	root, err := filepath.Abs(dst)
	if err != nil {
		return errors.Wrap(err, "failed to resolve dataset root")
	}
	if err := dataset.WriteDataConfig(dataConfig, dataset.NewDataConfig(root, models.HardHatClasses)); err != nil {
		return err
	}
	log.Info("processed data is ready", zap.String("dst", dst), zap.String("data_config", dataConfig))
	return nil
}

func runTrain(ctx context.Context, paramsPath, root, yolo string, log *zap.Logger) error {
	params, err := training.LoadParams(paramsPath)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrap(err, "failed to resolve project root")
	}

	r := &training.Runner{
		Root:    abs,
		Command: yolo,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  log,
	}
	return r.Run(ctx, params)
}
