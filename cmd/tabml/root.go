package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabml/dataset"
	"github.com/YuminosukeSato/tabml/internal/config"
	"github.com/YuminosukeSato/tabml/internal/registry"
	"github.com/YuminosukeSato/tabml/internal/telemetry"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

// app carries state shared by all commands of one invocation.
type app struct {
	configPath string
	logLevel   string
	console    bool

	// Flag values. They only override the loaded config when set explicitly.
	data          string
	labels        string
	target        int
	targetMode    string
	positiveLabel string
	trainFraction float64
	seed          int64
	scaler        string
	registryPath  string
	metricsFile   string

	lambda         float64
	learningRate   float64
	epochs         int
	regularization float64
	k              int
	maxDepth       int
	criterion      string

	cfg    config.Config
	logger log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tabml",
		Short: "Train and evaluate classic ML models on tabular data",
		Long: `tabml loads a CSV file, splits it into train and test partitions and
trains ridge regression, logistic regression, k-nearest neighbours, an ID3
decision tree or Gaussian naive Bayes on it.

Settings come from defaults, a YAML file (--config or TABML_CONFIG), a .env
file, TABML_* environment variables and finally command-line flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.console, "console", false, "human-readable log output")
	pf.StringVar(&a.registryPath, "registry", "", "model registry file")

	root.AddCommand(
		a.columnsCmd(),
		a.trainCmd(),
		a.evaluateCmd(),
		a.predictCmd(),
		a.modelsCmd(),
	)
	return root
}

func (a *app) addDataFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&a.data, "data", "", "CSV file, or .npy feature file together with --labels")
	f.StringVar(&a.labels, "labels", "", ".npy target file when --data is a .npy file")
	f.IntVar(&a.target, "target", -1, "zero-based target column; negative counts from the end")
	f.StringVar(&a.targetMode, "target-mode", "", "target encoding: binary or numeric")
	f.StringVar(&a.positiveLabel, "positive-label", "", "target value encoded as 1 in binary mode")
	f.Float64Var(&a.trainFraction, "train-fraction", 0, "share of rows used for training")
	f.Int64Var(&a.seed, "seed", 0, "shuffle seed")
	f.StringVar(&a.scaler, "scaler", "", "feature scaler: none, standard or minmax")
	f.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
}

func (a *app) addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&a.lambda, "lambda", 0, "ridge regularisation strength")
	f.Float64Var(&a.learningRate, "learning-rate", 0, "logistic regression learning rate")
	f.IntVar(&a.epochs, "epochs", 0, "logistic regression passes over the data")
	f.Float64Var(&a.regularization, "regularization", 0, "logistic regression L2 strength")
	f.IntVar(&a.k, "k", 0, "number of neighbours")
	f.IntVar(&a.maxDepth, "max-depth", 0, "maximum decision tree depth")
	f.StringVar(&a.criterion, "criterion", "", "decision tree split criterion: entropy or gini")
}

// setup loads the configuration, applies explicit flags on top and
// configures logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadUnvalidated(a.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	if err := log.Setup(level, cmd.ErrOrStderr(), a.console); err != nil {
		return err
	}
	a.logger = log.GetLoggerWithName("cli")
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("data") {
		cfg.Data.Path = a.data
	}
	if set("target") {
		cfg.Data.Target = a.target
	}
	if set("target-mode") {
		cfg.Data.TargetMode = a.targetMode
	}
	if set("positive-label") {
		cfg.Data.PositiveLabel = a.positiveLabel
	}
	if set("train-fraction") {
		cfg.Data.TrainFraction = a.trainFraction
	}
	if set("seed") {
		cfg.Data.Seed = a.seed
	}
	if set("scaler") {
		cfg.Data.Scaler = a.scaler
	}
	if set("registry") {
		cfg.Output.RegistryPath = a.registryPath
	}
	if set("metrics-file") {
		cfg.Output.MetricsFile = a.metricsFile
	}
	if set("lambda") {
		cfg.Linear.Lambda = a.lambda
	}
	if set("learning-rate") {
		cfg.Logistic.LearningRate = a.learningRate
	}
	if set("epochs") {
		cfg.Logistic.Epochs = a.epochs
	}
	if set("regularization") {
		cfg.Logistic.Regularization = a.regularization
	}
	if set("k") {
		cfg.KNN.K = a.k
	}
	if set("max-depth") {
		cfg.Tree.MaxDepth = a.maxDepth
	}
	if set("criterion") {
		cfg.Tree.Criterion = a.criterion
	}
}

// loadData reads the configured data file. .npy features need --labels.
func (a *app) loadData(cfg config.Config) (*dataset.Dataset, error) {
	if cfg.Data.Path == "" {
		return nil, errors.NewValidationError("data", "a data file is required", "")
	}
	if strings.EqualFold(filepath.Ext(cfg.Data.Path), ".npy") {
		if a.labels == "" {
			return nil, errors.NewValidationError("labels", "required with .npy features", "")
		}
		return dataset.LoadNPY(cfg.Data.Path, a.labels)
	}
	mode, err := dataset.ParseTargetMode(cfg.Data.TargetMode)
	if err != nil {
		return nil, err
	}
	return dataset.LoadCSV(cfg.Data.Path, dataset.CSVOptions{
		Target:        cfg.Data.Target,
		Mode:          mode,
		PositiveLabel: cfg.Data.PositiveLabel,
	})
}

func (a *app) openRegistry() (*registry.Store, error) {
	return registry.Open(a.cfg.Output.RegistryPath)
}

func (a *app) writeMetrics(m *telemetry.Metrics) error {
	if a.cfg.Output.MetricsFile == "" {
		return nil
	}
	return m.WriteTextfile(a.cfg.Output.MetricsFile)
}
