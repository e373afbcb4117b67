package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message")
	testLogger.Error("error message", fmt.Errorf("boom"), ErrorCodeKey, ErrorSingularMatrix)

	require.NotEmpty(t, buffer.String())
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, testLogger.ContainsMessage(msg), msg)
	}
	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0))
	assert.True(t, testLogger.ContainsField(ErrorKey, "boom"))
	assert.True(t, testLogger.ContainsField(ErrorCodeKey, ErrorSingularMatrix))

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestTestLoggerLevelAndWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelWarn)
	ctxLogger := testLogger.With(ModelNameKey, "Ridge")

	ctxLogger.Info("dropped")
	ctxLogger.Warn("kept")

	assert.False(t, testLogger.ContainsMessage("dropped"))
	assert.True(t, testLogger.ContainsField(ModelNameKey, "Ridge"))
	assert.False(t, testLogger.Enabled(context.Background(), LevelDebug))
	assert.True(t, testLogger.Enabled(context.Background(), LevelError))

	testLogger.Clear()
	assert.False(t, testLogger.ContainsMessage("kept"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(zerolog.New(&buf), LevelInfo)
	logger := p.GetLoggerWithName("tree").With(ModelNameKey, "DecisionTreeClassifier")

	logger.Debug("hidden")
	logger.Info("fit complete", SamplesKey, 3, FeaturesKey, 1)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "fit complete", lines[0]["message"])
	assert.Equal(t, "tree", lines[0][ComponentKey])
	assert.Equal(t, "DecisionTreeClassifier", lines[0][ModelNameKey])
	assert.Equal(t, 3.0, lines[0][SamplesKey])

	p.SetLevel(LevelDebug)
	logger.Debug("now visible")
	assert.Len(t, decodeLines(t, &buf), 2)
}

func TestZerologErrorStacktrace(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(zerolog.New(&buf), LevelDebug)

	err := errors.NewSingularMatrixError("FitRidge", 1, 0)
	p.GetLogger().Error("ridge fit failed", err, ErrorCodeKey, ErrorSingularMatrix)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0][ErrorKey], "singular matrix")
	assert.Equal(t, ErrorSingularMatrix, lines[0][ErrorCodeKey])
	assert.NotEmpty(t, lines[0][StacktraceKey])

	detail, ok := lines[0][ErrorKey+".detail"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SingularMatrixError", detail["type"])
}

func TestSetupRoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup("debug", &buf, false))
	defer errors.SetZerologWarnFunc(nil)

	errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted samples", 0))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "warnings", lines[0][ComponentKey])
	warning, ok := lines[0][WarningKey].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "precision", warning["metric"])

	assert.Error(t, Setup("loud", &buf, false))
}

func TestGlobalProviderSwap(t *testing.T) {
	p, logger := NewTestLoggerProvider(LevelDebug)
	SetProvider(p)

	GetLoggerWithName("metrics").Info("hello")
	assert.True(t, logger.ContainsField(ComponentKey, "metrics"))
}
