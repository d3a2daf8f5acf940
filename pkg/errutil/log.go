// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package errutil holds helpers for working with oops-coded errors.
package errutil

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Code returns the oops code carried by err, or "" when err has none.
func Code(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code, ok := oopsErr.Code().(string); ok {
		return code
	}
	return ""
}

// HasCode reports whether err, or any oops error it wraps, carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if Code(err) == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// LogError logs err at error level.
// Oops errors contribute their code and context as separate attributes.
func LogError(logger *slog.Logger, msg string, err error) {
	LogErrorContext(context.Background(), logger, msg, err)
}

// LogErrorContext is LogError with a request context, so handlers that
// attach trace ids see them on the record.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.ErrorContext(ctx, msg, "error", err)
		return
	}
	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil && code != "" {
		attrs = append(attrs, "code", code)
	}
	if kv := oopsErr.Context(); len(kv) > 0 {
		attrs = append(attrs, "context", kv)
	}
	logger.ErrorContext(ctx, msg, attrs...)
}
