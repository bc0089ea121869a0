// Package config loads the enricher settings from an env file and the
// process environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Defaults applied when the environment leaves a setting empty
const (
	DefaultNeo4jUser       = "neo4j"
	DefaultNeo4jDatabase   = "neo4j"
	DefaultInterpreter     = "python3"
	DefaultAnalyzerTimeout = 10 * time.Minute
	DefaultStagingInput    = "analyzer_input.json"
	DefaultStagingOutput   = "analyzer_output.json"
	DefaultMaxPoolSize     = 10
	DefaultConnectTimeout  = 10 * time.Second
)

// Neo4j holds the graph store connection settings
type Neo4j struct {
	URI            string `validate:"required"`
	Username       string
	Password       string
	Database       string `validate:"required"`
	MaxPoolSize    int    `validate:"min=1"`
	ConnectTimeout time.Duration
	NodeLabel      string
}

// Analyzer holds the external analyzer invocation settings
type Analyzer struct {
	Interpreter string
	Script      string `validate:"required"`
	Timeout     time.Duration
}

// Staging holds the locations of the files exchanged with the analyzer
type Staging struct {
	Dir        string `validate:"required"`
	InputName  string `validate:"required"`
	OutputName string `validate:"required"`
}

// Config is the complete enricher configuration
type Config struct {
	Neo4j        Neo4j
	Analyzer     Analyzer
	Staging      Staging
	VerifyStrict bool
	LogFormat    string
}

// Load reads envFile (a missing file is only logged) and builds the
// configuration from the environment. It does not validate; callers pick
// the checks that apply to their mode.
func Load(envFile string, logger logrus.FieldLogger) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warnf("Error loading env file %s", envFile)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables
func FromEnv() (*Config, error) {
	var err error
	cfg := &Config{
		Neo4j: Neo4j{
			URI:       getEnv("NEO4J_URI", ""),
			Username:  getEnv("NEO4J_USER", DefaultNeo4jUser),
			Password:  os.Getenv("NEO4J_PASSWORD"),
			Database:  getEnv("NEO4J_DATABASE", DefaultNeo4jDatabase),
			NodeLabel: getEnv("NODE_LABEL", ""),
		},
		Analyzer: Analyzer{
			Interpreter: getEnv("ANALYZER_INTERPRETER", DefaultInterpreter),
			Script:      getEnv("ANALYZER_SCRIPT", ""),
		},
		Staging: Staging{
			Dir:        getEnv("STAGING_DIR", filepath.Join(os.TempDir(), "kg-enricher")),
			InputName:  getEnv("STAGING_INPUT", DefaultStagingInput),
			OutputName: getEnv("STAGING_OUTPUT", DefaultStagingOutput),
		},
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	// "none" runs the script as an executable
	if strings.EqualFold(cfg.Analyzer.Interpreter, "none") {
		cfg.Analyzer.Interpreter = ""
	}

	if cfg.Neo4j.MaxPoolSize, err = getInt("NEO4J_MAX_POOL_SIZE", DefaultMaxPoolSize); err != nil {
		return nil, err
	}
	if cfg.Neo4j.ConnectTimeout, err = getDuration("NEO4J_TIMEOUT", DefaultConnectTimeout); err != nil {
		return nil, err
	}
	if cfg.Analyzer.Timeout, err = getDuration("ANALYZER_TIMEOUT", DefaultAnalyzerTimeout); err != nil {
		return nil, err
	}
	if cfg.VerifyStrict, err = getBool("VERIFY_STRICT", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings a run needs. Store settings are skipped
// for dry runs and analyzer settings when replaying a saved output.
func (c *Config) Validate(needStore, needAnalyzer bool) error {
	v := validator.New()

	if err := v.Struct(c.Staging); err != nil {
		return graph.E("config.Validate", graph.KindConfig, err)
	}
	if err := v.Var(c.LogFormat, "omitempty,oneof=text json"); err != nil {
		return graph.E("config.Validate", graph.KindConfig, errors.Wrap(err, "LOG_FORMAT"))
	}
	if needStore {
		if err := v.Struct(c.Neo4j); err != nil {
			return graph.E("config.Validate", graph.KindConfig, err)
		}
		if c.Neo4j.NodeLabel != "" && !graph.ValidIdentifier(c.Neo4j.NodeLabel) {
			return graph.Errorf("config.Validate", graph.KindConfig, "NODE_LABEL %q is not a valid label", c.Neo4j.NodeLabel)
		}
	}
	if needAnalyzer {
		if err := v.Struct(c.Analyzer); err != nil {
			return graph.E("config.Validate", graph.KindConfig, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, graph.E("config.FromEnv", graph.KindConfig, errors.Wrapf(err, "parsing %s", key))
	}
	return n, nil
}

// getDuration accepts Go durations ("90s") or a plain number of seconds
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, graph.E("config.FromEnv", graph.KindConfig, errors.Wrapf(err, "parsing %s", key))
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, graph.E("config.FromEnv", graph.KindConfig, errors.Wrapf(err, "parsing %s", key))
	}
	return b, nil
}
