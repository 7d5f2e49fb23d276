package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chiliquality/chiliquality-app/classify"
	"github.com/chiliquality/chiliquality-app/pipeline"
	"github.com/chiliquality/chiliquality-app/store"
	"github.com/sirupsen/logrus"
)

// common holds the flags shared by every command.
type common struct {
	db       string
	profile  string
	config   string
	logLevel string
}

func (c *common) register(fs *flag.FlagSet, defaultDB string) {
	fs.StringVar(&c.db, "db", defaultDB, "bbolt profile store")
	fs.StringVar(&c.profile, "profile", "", "named profile from the store")
	fs.StringVar(&c.config, "config", "", "pipeline config JSON file, overrides -profile")
	fs.StringVar(&c.logLevel, "log-level", "info", "log level")
}

func (c *common) apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.logLevel)
	if err != nil {
		return err
	}

	logger.SetLevel(level)
	return nil
}

func (c *common) openStore() (store.Store, error) {
	if c.db == "" {
		return nil, fmt.Errorf("no profile store given, use -db")
	}

	return store.OpenBBolt(c.db, 0o666, nil)
}

func readConfigFile(path string) (pipeline.Config, error) {
	config := pipeline.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("unable to read config: %w", err)
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("unable to unmarshal config %q: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config %q: %w", path, err)
	}

	return config, nil
}

// pipelineConfig resolves the config from -config, then -profile, then the
// store default, then the built-in default.
func (c *common) pipelineConfig(logger *logrus.Logger) (pipeline.Config, error) {
	if c.config != "" {
		logger.WithField("file", c.config).Debug("using config file")
		return readConfigFile(c.config)
	}

	if c.db == "" {
		if c.profile != "" {
			return pipeline.Config{}, fmt.Errorf("profile %q needs a store, use -db", c.profile)
		}
		return pipeline.DefaultConfig(), nil
	}

	s, err := c.openStore()
	if err != nil {
		return pipeline.Config{}, err
	}
	defer s.Close()

	if c.profile != "" {
		logger.WithField("profile", c.profile).Debug("using profile")
		return s.Profile(c.profile)
	}

	return store.DefaultConfig(s)
}

func parseColumns(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	var columns []int
	for _, part := range strings.Split(s, ",") {
		c, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid column %q: %w", part, err)
		}
		columns = append(columns, c)
	}

	return columns, nil
}

// estimatorHelp lists the estimator kinds, marking those that always fail.
func estimatorHelp() string {
	names := make([]string, len(classify.Kinds))
	for i, k := range classify.Kinds {
		names[i] = k.String()
		if !classify.Supported(k) {
			names[i] += " (not implemented, always fails)"
		}
	}

	return "estimator: " + strings.Join(names, ", ")
}
