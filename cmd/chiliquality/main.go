package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

const usage = `usage: chiliquality <command> [flags]

commands:
  segment   write segmented images of a directory tree
  extract   write the feature table of a directory tree
  classify  search and evaluate a classifier over a feature table
  regress   fit a lasso regression of one column on another
  serve     serve the segmentation http api
  profile   list, get, put or set the default segmentation profile
`

type command func(ctx context.Context, logger *logrus.Logger, args []string) error

var commands = map[string]command{
	"segment":  runSegment,
	"extract":  runExtract,
	"classify": runClassify,
	"regress":  runRegress,
	"serve":    runServe,
	"profile":  runProfile,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()

	if err := cmd(ctx, logger, os.Args[2:]); err != nil {
		logger.WithError(err).Error(os.Args[1] + " failed")
		stop()
		os.Exit(1)
	}
}
