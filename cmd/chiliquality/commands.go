package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chiliquality/chiliquality-app/batch"
	"github.com/chiliquality/chiliquality-app/cache"
	"github.com/chiliquality/chiliquality-app/classify"
	"github.com/chiliquality/chiliquality-app/feature"
	"github.com/chiliquality/chiliquality-app/pipeline"
	"github.com/chiliquality/chiliquality-app/server"
	"github.com/dgraph-io/badger/v2"
	"github.com/sirupsen/logrus"
)

func runSegment(ctx context.Context, logger *logrus.Logger, args []string) error {
	var c common
	fs := flag.NewFlagSet("segment", flag.ExitOnError)
	c.register(fs, "")
	src := fs.String("src", "", "input image directory")
	dst := fs.String("dst", "", "output directory")
	keepGoing := fs.Bool("keep-going", false, "skip undecodable images")
	fs.Parse(args)

	if err := c.apply(logger); err != nil {
		return err
	}
	if *src == "" || *dst == "" {
		return fmt.Errorf("-src and -dst are required")
	}

	config, err := c.pipelineConfig(logger)
	if err != nil {
		return err
	}

	runner := batch.Runner{
		Pipeline:  pipeline.New(config),
		Logger:    logger,
		KeepGoing: *keepGoing,
	}

	n, err := runner.Segment(ctx, *src, *dst)
	logger.WithField("images", n).Info("segmentation done")

	return err
}

func runExtract(ctx context.Context, logger *logrus.Logger, args []string) error {
	var c common
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	c.register(fs, "")
	src := fs.String("src", "", "input image directory")
	out := fs.String("out", "", "output CSV file, stdout when empty")
	variantName := fs.String("variant", "perimeter", "feature variant: basic or perimeter")
	cacheDir := fs.String("cache", "", "badger feature cache directory")
	keepGoing := fs.Bool("keep-going", false, "skip undecodable images")
	fs.Parse(args)

	if err := c.apply(logger); err != nil {
		return err
	}
	if *src == "" {
		return fmt.Errorf("-src is required")
	}

	variant, err := feature.ParseVariant(*variantName)
	if err != nil {
		return err
	}

	config, err := c.pipelineConfig(logger)
	if err != nil {
		return err
	}

	runner := batch.Runner{
		Pipeline:  pipeline.New(config),
		Variant:   variant,
		Logger:    logger,
		KeepGoing: *keepGoing,
	}

	if *cacheDir != "" {
		fc, err := cache.OpenBadger(badger.DefaultOptions(*cacheDir).WithLogger(logger))
		if err != nil {
			return err
		}
		defer fc.Close()

		runner.Cache = fc
	}

	table, err := runner.Extract(ctx, *src)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("unable to create %q: %w", *out, err)
		}
		defer f.Close()

		w = f
	}

	if err := table.WriteCSV(w); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"rows": table.Len(), "variant": variant}).Info("extraction done")

	return nil
}

func runClassify(ctx context.Context, logger *logrus.Logger, args []string) error {
	var c common
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	c.register(fs, "")
	featurePath := fs.String("features", "", "feature CSV")
	labelPath := fs.String("labels", "", "label CSV")
	estimator := fs.String("estimator", "knn", estimatorHelp())
	columnList := fs.String("columns", "", "comma separated feature columns, all when empty")
	iterations := fs.Int("iterations", 2, "random search iterations")
	nFolds := fs.Int("folds", 3, "cross validation folds")
	testFraction := fs.Float64("test", 0.3, "held out fraction")
	seed := fs.Int64("seed", 0, "shuffle and search seed")
	fs.Parse(args)

	if err := c.apply(logger); err != nil {
		return err
	}
	if *featurePath == "" || *labelPath == "" {
		return fmt.Errorf("-features and -labels are required")
	}

	kind, err := classify.ParseKind(*estimator)
	if err != nil {
		return err
	}

	columns, err := parseColumns(*columnList)
	if err != nil {
		return err
	}

	d, err := classify.LoadDataset(*featurePath, *labelPath, columns)
	if err != nil {
		return err
	}

	train, test, err := classify.Split(d, *testFraction, *seed)
	if err != nil {
		return err
	}

	search := classify.Search{
		Space:      classify.DefaultSpace(kind),
		Iterations: *iterations,
		Folds:      *nFolds,
		Seed:       *seed,
		Logger:     logger,
	}

	result, err := search.Run(train)
	if err != nil {
		return err
	}

	report := classify.Evaluate(result.Estimator, train, test)

	logger.WithFields(logrus.Fields{
		"estimator": kind,
		"params":    result.Params,
		"cv":        result.Score,
	}).Info("best estimator")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(report)
}

func runRegress(ctx context.Context, logger *logrus.Logger, args []string) error {
	var c common
	fs := flag.NewFlagSet("regress", flag.ExitOnError)
	c.register(fs, "")
	dataPath := fs.String("data", "", "CSV table")
	featureCol := fs.Int("x", 0, "feature column")
	targetCol := fs.Int("y", 1, "target column")
	alpha := fs.Float64("alpha", 1, "lasso L1 penalty")
	testFraction := fs.Float64("test", 0.3, "held out fraction")
	seed := fs.Int64("seed", 0, "shuffle seed")
	fs.Parse(args)

	if err := c.apply(logger); err != nil {
		return err
	}
	if *dataPath == "" {
		return fmt.Errorf("-data is required")
	}

	d, err := classify.LoadRegression(*dataPath, *featureCol, *targetCol)
	if err != nil {
		return err
	}

	train, test, err := classify.Split(d, *testFraction, *seed)
	if err != nil {
		return err
	}

	report, err := classify.Regress(*alpha, train, test)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"alpha": *alpha,
		"r2":    report.TestR2,
	}).Info("lasso fitted")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(report)
}

func runServe(ctx context.Context, logger *logrus.Logger, args []string) error {
	var c common
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	c.register(fs, "store.db")
	addr := fs.String("addr", ":8080", "listen address")
	variantName := fs.String("variant", "perimeter", "default feature variant")
	fs.Parse(args)

	if err := c.apply(logger); err != nil {
		return err
	}

	variant, err := feature.ParseVariant(*variantName)
	if err != nil {
		return err
	}

	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	srv := server.Server{Addr: *addr, Store: s, Logger: logger, Variant: variant}

	return srv.Run(ctx)
}
