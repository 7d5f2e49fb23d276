package server

import (
	"sync"

	"github.com/chiliquality/chiliquality-app/pipeline"
)

// pipelineManager synchronizes access to the active pipeline.
type pipelineManager struct {
	name     string
	pipeline pipeline.Pipeline
	mu       *sync.RWMutex
}

func (p *pipelineManager) SetConfig(name string, config pipeline.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.name = name
	p.pipeline = pipeline.New(config)
}

// Pipeline returns the active pipeline and the profile it came from, empty
// for the built-in config.
func (p *pipelineManager) Pipeline() (pipeline.Pipeline, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pipeline, p.name
}
