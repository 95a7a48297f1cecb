package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/pystub/errors"
)

func initBuffer(t *testing.T, jsonOutput bool, verbosity int) *bytes.Buffer {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	require.NoError(t, InitializeTo(&buf, jsonOutput, verbosity))
	t.Cleanup(func() { Logger = zap.NewNop().Sugar() })
	return &buf
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{"JSON output mode", true},
		{"Console output mode", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = !tt.jsonOutput

			require.NoError(t, Initialize(tt.jsonOutput, VerbosityInfo))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestConsoleOutput(t *testing.T) {
	buf := initBuffer(t, false, VerbosityInfo)

	ComponentLogger("describe.loader").With(FieldRunID, "r1").
		Infow("loaded description", FieldModule, "geometry", FieldCount, 3, FieldDurationMS, 12)
	Cleanup()

	line := buf.String()
	assert.Contains(t, line, "  d.loader  loaded description  ")
	assert.Contains(t, line, "count=3 12ms module=geometry run_id=r1\n")
	assert.NotContains(t, line, "\x1b[")
}

func TestConsoleOutputShowsLevels(t *testing.T) {
	buf := initBuffer(t, false, VerbosityDebug)

	Debugw("resolving")
	Warnw("slow module")
	Errorw("generation failed", FieldError, errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "  DEBUG  resolving\n")
	assert.Contains(t, out, "  WARN  slow module\n")
	assert.Contains(t, out, "  ERROR  generation failed  error=boom\n")
}

func TestConsoleOutputDropsVerboseErrors(t *testing.T) {
	buf := initBuffer(t, false, VerbosityInfo)

	Logger.Infow("wrapped", zap.Error(errors.Wrap(errors.ErrUnmappedType, "chan int")))

	out := buf.String()
	assert.Contains(t, out, "error=chan int: unmapped type")
	assert.NotContains(t, out, "errorVerbose")
}

func TestJSONOutput(t *testing.T) {
	buf := initBuffer(t, true, VerbosityInfo)

	ComponentLogger("writer").Infow("wrote stub", FieldFile, "geometry.pyi", FieldCount, 1)
	Cleanup()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "wrote stub", entry["msg"])
	assert.Equal(t, "writer", entry["logger"])
	assert.Equal(t, "geometry.pyi", entry[FieldFile])
	assert.EqualValues(t, 1, entry[FieldCount])
}

func TestVerbosityFiltersLevels(t *testing.T) {
	buf := initBuffer(t, false, VerbosityUser)

	Infow("hidden")
	Debugw("hidden too")
	Warnw("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.WarnLevel},
		{VerbosityUser, zapcore.WarnLevel},
		{VerbosityInfo, zapcore.InfoLevel},
		{VerbosityDebug, zapcore.DebugLevel},
		{VerbosityTrace, zapcore.DebugLevel},
		{10, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "User", LevelName(0))
	assert.Equal(t, "Debug (-vv)", LevelName(2))
	assert.Equal(t, "Trace (-vvv+)", LevelName(7))
	assert.Equal(t, "Unknown", LevelName(-1))
	assert.True(t, ShouldLogTrace(3))
	assert.False(t, ShouldLogTrace(2))
}

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FieldsFromContext(ctx))
	assert.Same(t, Logger, LoggerFromContext(ctx))

	ctx = WithComponent(WithRunID(ctx, "run-1"), "generate")
	assert.Equal(t, []interface{}{FieldRunID, "run-1", FieldComponent, "generate"}, FieldsFromContext(ctx))
	assert.Equal(t, "run-1", RunID(ctx))
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "d.loader", abbreviateName("describe.loader"))
	assert.Equal(t, "watch", abbreviateName("watch"))
	assert.Equal(t, "g.a.b", abbreviateName("goextract.a.b"))
}
