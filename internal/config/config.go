// Package config loads tabml settings from defaults, an optional YAML file,
// a .env file and TABML_* environment variables, in that order of precedence
// (later wins). Command-line flags are applied by the caller afterwards.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/tabml/dataset"
	"github.com/YuminosukeSato/tabml/linear"
	"github.com/YuminosukeSato/tabml/neighbors"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/preprocessing"
	"github.com/YuminosukeSato/tabml/tree"
)

// EnvConfigFile names the YAML file when --config is not given.
const EnvConfigFile = "TABML_CONFIG"

// DefaultSeed makes splits reproducible unless overridden.
const DefaultSeed = 42

// dotEnvPath is read by Load when it exists.
var dotEnvPath = ".env"

// Config is the full tabml configuration.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Linear   LinearConfig   `yaml:"linear"`
	Logistic LogisticConfig `yaml:"logistic"`
	KNN      KNNConfig      `yaml:"knn"`
	Tree     TreeConfig     `yaml:"tree"`
	Output   OutputConfig   `yaml:"output"`
	LogLevel string         `yaml:"logLevel"`
}

// DataConfig selects the data file, its target and the train/test split.
type DataConfig struct {
	Path          string  `yaml:"path"`
	Target        int     `yaml:"target"`
	TargetMode    string  `yaml:"targetMode"`
	PositiveLabel string  `yaml:"positiveLabel"`
	TrainFraction float64 `yaml:"trainFraction"`
	Seed          int64   `yaml:"seed"`
	Scaler        string  `yaml:"scaler"`
}

// LinearConfig holds the ridge regression settings.
type LinearConfig struct {
	Lambda float64 `yaml:"lambda"`
}

// LogisticConfig holds the SGD settings of logistic regression.
type LogisticConfig struct {
	LearningRate   float64 `yaml:"learningRate"`
	Epochs         int     `yaml:"epochs"`
	Regularization float64 `yaml:"regularization"`
}

// KNNConfig holds the k-nearest neighbours settings.
type KNNConfig struct {
	K int `yaml:"k"`
}

// TreeConfig holds the decision tree growth limits.
type TreeConfig struct {
	MaxDepth        int    `yaml:"maxDepth"`
	Criterion       string `yaml:"criterion"`
	MinSamplesSplit int    `yaml:"minSamplesSplit"`
	MinSamplesLeaf  int    `yaml:"minSamplesLeaf"`
}

// OutputConfig names the files a run writes besides stdout.
type OutputConfig struct {
	RegistryPath string `yaml:"registryPath"`
	MetricsFile  string `yaml:"metricsFile"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Data: DataConfig{
			Target:        -1,
			TargetMode:    "binary",
			PositiveLabel: dataset.DefaultPositiveLabel,
			TrainFraction: dataset.DefaultTrainFraction,
			Seed:          DefaultSeed,
			Scaler:        "none",
		},
		Linear: LinearConfig{Lambda: linear.DefaultLambda},
		Logistic: LogisticConfig{
			LearningRate: linear.DefaultLearningRate,
			Epochs:       linear.DefaultEpochs,
		},
		KNN: KNNConfig{K: neighbors.DefaultK},
		Tree: TreeConfig{
			MaxDepth:        tree.DefaultMaxDepth,
			Criterion:       "entropy",
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
		},
		Output:   OutputConfig{RegistryPath: "tabml.db"},
		LogLevel: "info",
	}
}

// Load builds a Config and validates it. path may be empty, in which case
// TABML_CONFIG is consulted; with neither set only defaults and the
// environment apply. A .env file in the working directory is loaded if
// present; it never overrides variables that are already set.
func Load(path string) (Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the final Validate. Callers that layer
// further overrides on top, such as command-line flags, validate afterwards.
func LoadUnvalidated(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return Config{}, errors.Wrap(err, "load .env")
		}
	}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"TABML_DATA", &cfg.Data.Path},
		{"TABML_TARGET_MODE", &cfg.Data.TargetMode},
		{"TABML_POSITIVE_LABEL", &cfg.Data.PositiveLabel},
		{"TABML_SCALER", &cfg.Data.Scaler},
		{"TABML_CRITERION", &cfg.Tree.Criterion},
		{"TABML_REGISTRY", &cfg.Output.RegistryPath},
		{"TABML_METRICS_FILE", &cfg.Output.MetricsFile},
		{"TABML_LOG_LEVEL", &cfg.LogLevel},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"TABML_TARGET", &cfg.Data.Target},
		{"TABML_EPOCHS", &cfg.Logistic.Epochs},
		{"TABML_K", &cfg.KNN.K},
		{"TABML_MAX_DEPTH", &cfg.Tree.MaxDepth},
	}
	for _, s := range ints {
		if v := os.Getenv(s.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.NewValidationError(s.key, "must be an integer", v)
			}
			*s.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"TABML_TRAIN_FRACTION", &cfg.Data.TrainFraction},
		{"TABML_LAMBDA", &cfg.Linear.Lambda},
		{"TABML_LEARNING_RATE", &cfg.Logistic.LearningRate},
		{"TABML_REGULARIZATION", &cfg.Logistic.Regularization},
	}
	for _, s := range floats {
		if v := os.Getenv(s.key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.NewValidationError(s.key, "must be a number", v)
			}
			*s.dst = f
		}
	}

	if v := os.Getenv("TABML_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.NewValidationError("TABML_SEED", "must be an integer", v)
		}
		cfg.Data.Seed = seed
	}
	return nil
}

// Validate checks every field that has a restricted range.
func (c *Config) Validate() error {
	if c.Data.TrainFraction <= 0 || c.Data.TrainFraction >= 1 {
		return errors.NewValidationError("data.trainFraction", "must be in (0, 1)", c.Data.TrainFraction)
	}
	if _, err := dataset.ParseTargetMode(c.Data.TargetMode); err != nil {
		return err
	}
	if _, err := preprocessing.New(c.Data.Scaler); err != nil {
		return err
	}
	if c.Linear.Lambda < 0 {
		return errors.NewValidationError("linear.lambda", "must be >= 0", c.Linear.Lambda)
	}
	if c.Logistic.LearningRate <= 0 {
		return errors.NewValidationError("logistic.learningRate", "must be > 0", c.Logistic.LearningRate)
	}
	if c.Logistic.Epochs < 0 {
		return errors.NewValidationError("logistic.epochs", "must be >= 0", c.Logistic.Epochs)
	}
	if c.Logistic.Regularization < 0 {
		return errors.NewValidationError("logistic.regularization", "must be >= 0", c.Logistic.Regularization)
	}
	if c.KNN.K < 1 {
		return errors.NewValidationError("knn.k", "must be >= 1", c.KNN.K)
	}
	if c.Tree.MaxDepth < 0 {
		return errors.NewValidationError("tree.maxDepth", "must be >= 0", c.Tree.MaxDepth)
	}
	if _, err := tree.ParseCriterion(c.Tree.Criterion); err != nil {
		return err
	}
	if c.Tree.MinSamplesSplit < 2 {
		return errors.NewValidationError("tree.minSamplesSplit", "must be >= 2", c.Tree.MinSamplesSplit)
	}
	if c.Tree.MinSamplesLeaf < 1 {
		return errors.NewValidationError("tree.minSamplesLeaf", "must be >= 1", c.Tree.MinSamplesLeaf)
	}
	return nil
}
