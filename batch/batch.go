// Package batch runs the segmentation pipeline over a tree of image files,
// one image at a time, in the order given by an images.Lister.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/chiliquality/chiliquality-app/cache"
	"github.com/chiliquality/chiliquality-app/feature"
	"github.com/chiliquality/chiliquality-app/images"
	"github.com/chiliquality/chiliquality-app/pipeline"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

type Runner struct {
	Pipeline pipeline.Pipeline
	Variant  feature.Variant

	// List orders the input files; images.Walk when nil.
	List images.Lister
	// Cache is optional.
	Cache  cache.Cache
	Logger *logrus.Logger

	// KeepGoing skips undecodable files instead of stopping the run.
	KeepGoing bool

	// OnSegment, when set, is called with every segmented image.
	OnSegment func(path string, seg pipeline.Segment)
}

func (r Runner) list(src string) ([]string, error) {
	list := r.List
	if list == nil {
		list = images.Walk
	}

	paths, err := list(src)
	if err != nil {
		return nil, fmt.Errorf("unable to list images in %q: %w", src, err)
	}

	return paths, nil
}

func (r Runner) logger() *logrus.Logger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}

	return r.Logger
}

// read decodes path, reporting whether the caller should skip it.
func (r Runner) read(path string) (gocv.Mat, []byte, bool, error) {
	img, data, err := images.Read(path)
	if err == nil {
		return img, data, false, nil
	}
	img.Close()

	if r.KeepGoing && errors.Is(err, images.ErrDecode{}) {
		r.logger().WithError(err).WithField("path", path).Warn("skipping image")
		return gocv.Mat{}, nil, true, nil
	}

	return gocv.Mat{}, nil, false, err
}

func (r Runner) segment(path string, img gocv.Mat) (pipeline.Segment, error) {
	seg, err := r.Pipeline.Segment(img)
	if err != nil {
		return seg, fmt.Errorf("unable to segment %q: %w", path, err)
	}

	if r.OnSegment != nil {
		r.OnSegment(path, seg)
	}

	return seg, nil
}

// Segment writes the segmented version of every image under src to dst,
// keeping base file names. It returns the number of images written.
func (r Runner) Segment(ctx context.Context, src, dst string) (int, error) {
	paths, err := r.list(src)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		r.logger().WithField("path", path).Info("segmenting image")

		img, _, skip, err := r.read(path)
		if err != nil {
			return written, err
		}
		if skip {
			continue
		}

		seg, err := r.segment(path, img)
		img.Close()
		if err != nil {
			return written, err
		}

		out := filepath.Join(dst, filepath.Base(path))
		err = images.Write(out, seg.Image)
		seg.Close()
		if err != nil {
			return written, err
		}

		written++
	}

	return written, nil
}

// Extract builds the feature table of every image under src, one row per
// decoded image in listing order.
func (r Runner) Extract(ctx context.Context, src string) (*feature.Table, error) {
	paths, err := r.list(src)
	if err != nil {
		return nil, err
	}

	table := feature.NewTable(r.Variant)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return table, err
		}

		r.logger().WithField("path", path).Info("extracting features")

		vec, skip, err := r.extractOne(path)
		if err != nil {
			return table, err
		}
		if skip {
			continue
		}

		if err := table.Append(vec); err != nil {
			return table, fmt.Errorf("unable to add features of %q: %w", path, err)
		}
	}

	return table, nil
}

func (r Runner) extractOne(path string) (feature.Vector, bool, error) {
	img, data, skip, err := r.read(path)
	if err != nil || skip {
		return nil, skip, err
	}
	defer img.Close()

	var key string
	if r.Cache != nil {
		key, err = cache.Key(data, r.Pipeline.Config, r.Variant)
		if err != nil {
			return nil, false, err
		}

		vec, ok, err := r.Cache.Get(key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			r.logger().WithField("path", path).Debug("feature cache hit")
			return vec, false, nil
		}
	}

	seg, err := r.segment(path, img)
	if err != nil {
		return nil, false, err
	}
	defer seg.Close()

	vec := feature.Extract(seg, r.Variant)

	r.logger().WithFields(logrus.Fields{
		"path":     path,
		"contours": len(seg.Contours),
		"area":     vec[feature.Area],
	}).Debug("features extracted")

	if r.Cache != nil {
		if err := r.Cache.Put(key, vec); err != nil {
			return nil, false, err
		}
	}

	return vec, false, nil
}
