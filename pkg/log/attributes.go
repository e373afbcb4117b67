package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "Ridge" or "GaussianNB".
	ModelNameKey = "model.name"

	// AlgorithmKey is the CLI name of an algorithm: linear, logistic, knn, tree or nb.
	AlgorithmKey = "ml.algorithm"

	// OperationKey is the operation being performed: fit, predict or score.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or subsystem emitting the entry.
	ComponentKey = "ml.component"

	// RunIDKey ties together all entries of one CLI invocation.
	RunIDKey = "run.id"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
	PathKey     = "data.path"
	TargetKey   = "data.target"
)

// Performance and model summary.
const (
	DurationMsKey   = "perf.duration_ms"
	AccuracyKey     = "metrics.accuracy"
	MacroF1Key      = "metrics.macro_f1"
	RMSEKey         = "metrics.rmse"
	EpochKey        = "training.epoch"
	TreeDepthKey    = "tree.depth"
	TreeLeavesKey   = "tree.leaves"
	LearningRateKey = "hyperparams.learning_rate"
	LambdaKey       = "hyperparams.lambda"
	RandomSeedKey   = "config.random_seed"
)

// Error context.
const (
	ErrorKey      = "error"
	ErrorCodeKey  = "error.code"
	StacktraceKey = "error.stacktrace"
	WarningKey    = "warning"
)

// Standard values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
