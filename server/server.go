package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chiliquality/chiliquality-app/feature"
	"github.com/chiliquality/chiliquality-app/pipeline"
	"github.com/chiliquality/chiliquality-app/store"
	"github.com/hybridgroup/mjpeg"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// defaultMaxUpload bounds the body of /segment when MaxUpload is unset.
const defaultMaxUpload = 32 << 20

type Server struct {
	Addr string

	Store  store.Store
	Logger *logrus.Logger

	// Variant of the features returned by /segment when the request names none.
	Variant feature.Variant
	// MaxUpload is the largest accepted /segment body in bytes.
	MaxUpload int64

	stream *mjpeg.Stream

	pipelineManager *pipelineManager
}

// Handler initializes the server from its store and returns the router.
func (s *Server) Handler() (http.Handler, error) {
	if s.Logger == nil {
		s.Logger = logrus.StandardLogger()
	}

	if s.MaxUpload <= 0 {
		s.MaxUpload = defaultMaxUpload
	}

	s.stream = mjpeg.NewStream()

	if err := s.init(); err != nil {
		return nil, fmt.Errorf("unable to initialize: %w", err)
	}

	mux := httprouter.New()

	mux.Handler(http.MethodGet, "/stream", s.stream)
	mux.HandlerFunc(http.MethodGet, "/healthz", s.healthz)

	mux.HandlerFunc(http.MethodGet, "/profile", s.getDefaultProfile)
	mux.HandlerFunc(http.MethodPut, "/profile", s.putDefaultProfile)
	mux.HandlerFunc(http.MethodGet, "/profiles", s.profiles)
	mux.HandlerFunc(http.MethodGet, "/profiles/:name", s.getProfile)
	mux.HandlerFunc(http.MethodPut, "/profiles/:name", s.putProfile)
	mux.HandlerFunc(http.MethodDelete, "/profiles/:name", s.deleteProfile)

	mux.HandlerFunc(http.MethodPost, "/rpc/activate", s.activate)
	mux.HandlerFunc(http.MethodPost, "/segment", s.segment)

	return mux, nil
}

func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.Addr,
		Handler:           handler,
		ReadTimeout:       time.Second * 15,
		ReadHeaderTimeout: time.Second * 15,
		IdleTimeout:       time.Second * 30,
		MaxHeaderBytes:    4096,
	}

	listenErrs := make(chan error, 1)
	go func() {
		s.Logger.WithField("addr", s.Addr).Info("serving http")
		listenErrs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-listenErrs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	}
}

// init sets the active pipeline from the default profile in the store, falling
// back to the built-in config.
func (s *Server) init() error {
	s.pipelineManager = &pipelineManager{mu: new(sync.RWMutex)}

	name, err := s.Store.DefaultProfile()
	if err != nil {
		return err
	}

	config := pipeline.DefaultConfig()
	if name != "" {
		config, err = s.Store.Profile(name)
		if err != nil {
			s.Logger.Warnf("unable to load default profile, using built-in config: %s", err)
			config, name = pipeline.DefaultConfig(), ""
		}
	} else {
		s.Logger.Info("no default profile set, using built-in config")
	}

	s.pipelineManager.SetConfig(name, config)

	return nil
}
