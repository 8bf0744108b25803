// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns the sugared CLI logger. Output goes to w (stderr when nil) so that
// json/yaml written to stdout stays machine readable. Debug level is enabled by verbose.
func NewLogger(w io.Writer, verbose bool) *zap.SugaredLogger {
	if w == nil {
		w = os.Stderr
	}
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// OperationFields returns key/value pairs suitable for SugaredLogger.With or Infow/Debugw
// calls. The request ID is only included when set.
func OperationFields(operation, requestID string) []interface{} {
	if requestID == "" {
		return []interface{}{"operation", operation}
	}
	return []interface{}{"operation", operation, "requestID", requestID}
}
