package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset     = "\x1b[0m"
	colorBold      = "\x1b[1m"
	colorTime      = "\x1b[38;5;107m"
	colorComponent = "\x1b[38;5;208m"
	colorKey       = "\x1b[38;5;109m"
	colorWarn      = "\x1b[38;5;179m"
	colorError     = "\x1b[38;5;167m"
)

var bufferPool = buffer.NewPool()

// consoleEncoder writes calm, compact lines:
// "13:04:35  d.loader  loaded description  file=stubs/geometry.yaml module=geometry"
//
// Context fields added with With are collected by the embedded map encoder.
type consoleEncoder struct {
	*zapcore.MapObjectEncoder
	color bool
}

func newConsoleEncoder(color bool) *consoleEncoder {
	return &consoleEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder(), color: color}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &consoleEncoder{MapObjectEncoder: clone, color: enc.color}
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := bufferPool.Get()

	line.AppendString(enc.paint(colorTime, ent.Time.Format("15:04:05")))
	// Level only for WARN and above
	if ent.Level > zapcore.InfoLevel {
		line.AppendString("  ")
		line.AppendString(enc.paint(colorBold+levelColor(ent.Level), ent.Level.CapitalString()))
	} else if ent.Level == zapcore.DebugLevel {
		line.AppendString("  DEBUG")
	}
	if ent.LoggerName != "" {
		line.AppendString("  ")
		line.AppendString(enc.paint(colorComponent, abbreviateName(ent.LoggerName)))
	}
	line.AppendString("  ")
	line.AppendString(ent.Message)

	if values := enc.fieldValues(fields); values != "" {
		line.AppendString("  ")
		line.AppendString(values)
	}
	line.AppendString("\n")
	return line, nil
}

func (enc *consoleEncoder) paint(color, s string) string {
	if !enc.color {
		return s
	}
	return color + s + colorReset
}

func levelColor(level zapcore.Level) string {
	if level == zapcore.WarnLevel {
		return colorWarn
	}
	return colorError
}

// abbreviateName shortens component names: describe.loader -> d.loader
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// fieldValues renders context and entry fields as key=value pairs in key order.
// Durations are shown with their unit; verbose error chains are left to JSON
// output.
func (enc *consoleEncoder) fieldValues(fields []zapcore.Field) string {
	all := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		all.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(all)
	}
	delete(all.Fields, "errorVerbose")

	keys := make([]string, 0, len(all.Fields))
	for k := range all.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := all.Fields[k]
		if k == FieldDurationMS {
			parts = append(parts, fmt.Sprintf("%vms", v))
			continue
		}
		parts = append(parts, enc.paint(colorKey, k)+"="+fmt.Sprint(v))
	}
	return strings.Join(parts, " ")
}
