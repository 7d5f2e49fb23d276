package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/chiliquality/chiliquality-app/feature"
	"github.com/chiliquality/chiliquality-app/images"
	"github.com/chiliquality/chiliquality-app/pipeline"
	"github.com/chiliquality/chiliquality-app/quality"
	"github.com/chiliquality/chiliquality-app/store"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// storeStatus maps a store error to an http status.
func storeStatus(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

func (s *Server) healthz(res http.ResponseWriter, req *http.Request) {
	_, name := s.pipelineManager.Pipeline()
	respond(res, map[string]string{"status": "ok", "profile": name}, http.StatusOK)
}

func (s *Server) getDefaultProfile(res http.ResponseWriter, req *http.Request) {
	name, err := s.Store.DefaultProfile()
	if err != nil {
		respond(res, err, http.StatusInternalServerError)
		return
	}

	respond(res, name, http.StatusOK)
}

func (s *Server) putDefaultProfile(res http.ResponseWriter, req *http.Request) {
	var name string
	if err := json.NewDecoder(req.Body).Decode(&name); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	if err := s.Store.PutDefaultProfile(name); err != nil {
		respond(res, err, storeStatus(err))
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) profiles(res http.ResponseWriter, req *http.Request) {
	profiles, err := s.Store.ListProfiles()
	if err != nil {
		respond(res, err, http.StatusInternalServerError)
		return
	}

	respond(res, profiles, http.StatusOK)
}

func (s *Server) getProfile(res http.ResponseWriter, req *http.Request) {
	params := httprouter.ParamsFromContext(req.Context())
	name := params.ByName("name")

	config, err := s.Store.Profile(name)
	if err != nil {
		respond(res, err, storeStatus(err))
		return
	}

	respond(res, config, http.StatusOK)
}

func (s *Server) putProfile(res http.ResponseWriter, req *http.Request) {
	params := httprouter.ParamsFromContext(req.Context())
	name := params.ByName("name")

	var config pipeline.Config
	if err := json.NewDecoder(req.Body).Decode(&config); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}
	if err := config.Validate(); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	if err := s.Store.PutProfile(name, config); err != nil {
		respond(res, err, http.StatusInternalServerError)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) deleteProfile(res http.ResponseWriter, req *http.Request) {
	params := httprouter.ParamsFromContext(req.Context())
	name := params.ByName("name")

	if err := s.Store.DeleteProfile(name); err != nil {
		respond(res, err, storeStatus(err))
		return
	}

	respond(res, nil, http.StatusNoContent)
}

// activate switches the pipeline used by /segment to a stored profile.
func (s *Server) activate(res http.ResponseWriter, req *http.Request) {
	name := req.URL.Query().Get("name")

	config, err := s.Store.Profile(name)
	if err != nil {
		respond(res, err, storeStatus(err))
		return
	}

	s.pipelineManager.SetConfig(name, config)
	s.Logger.WithField("profile", name).Info("activated profile")

	respond(res, nil, http.StatusOK)
}

type segmentResponse struct {
	Profile  string           `json:"profile"`
	Header   []string         `json:"header"`
	Features feature.Vector   `json:"features"`
	Contours int              `json:"contours"`
	Quality  quality.Estimate `json:"quality"`
}

// segment runs the active pipeline over the image in the request body and
// pushes the segmented image to the stream.
func (s *Server) segment(res http.ResponseWriter, req *http.Request) {
	variant := s.Variant
	if v := req.URL.Query().Get("variant"); v != "" {
		var err error
		if variant, err = feature.ParseVariant(v); err != nil {
			respond(res, err, http.StatusBadRequest)
			return
		}
	}

	data, err := io.ReadAll(http.MaxBytesReader(res, req.Body, s.MaxUpload))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		respond(res, fmt.Errorf("unable to read body: %w", err), status)
		return
	}

	img, err := images.Decode(data)
	if err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}
	defer img.Close()

	p, name := s.pipelineManager.Pipeline()

	seg, err := p.Segment(img)
	if err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}
	defer seg.Close()

	vec := feature.Extract(seg, variant)

	est, err := quality.Estimates(vec)
	if err != nil {
		respond(res, err, http.StatusInternalServerError)
		return
	}

	if buf, err := images.EncodeJPEG(seg.Image); err == nil {
		s.stream.UpdateJPEG(buf)
	} else {
		s.Logger.Warnf("unable to encode preview: %s", err)
	}

	s.Logger.WithFields(logrus.Fields{
		"profile":  name,
		"contours": len(seg.Contours),
		"area":     vec[feature.Area],
	}).Debug("segmented upload")

	respond(res, segmentResponse{
		Profile:  name,
		Header:   variant.Columns(),
		Features: vec,
		Contours: len(seg.Contours),
		Quality:  est,
	}, http.StatusOK)
}
