// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotons/genocrowd/pkg/errutil"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("STORE_UNAVAILABLE").
		With("collection", "users").
		Errorf("server selection timeout")

	errutil.LogError(logger, "list users failed", err)

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "list users failed", entry["msg"])
	assert.Equal(t, "STORE_UNAVAILABLE", entry["code"])
	ctx, ok := entry["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "users", ctx["collection"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("standard error"))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "standard error")
	assert.NotContains(t, entry, "code")
}

func TestCode(t *testing.T) {
	assert.Equal(t, "", errutil.Code(nil))
	assert.Equal(t, "", errutil.Code(errors.New("plain")))
	assert.Equal(t, "AUTH_USER_NOT_FOUND", errutil.Code(oops.Code("AUTH_USER_NOT_FOUND").Errorf("missing")))
}

func TestHasCode(t *testing.T) {
	inner := oops.Code("STORE_UNAVAILABLE").Errorf("down")
	wrapped := fmt.Errorf("list: %w", inner)

	assert.True(t, errutil.HasCode(wrapped, "STORE_UNAVAILABLE"))
	assert.False(t, errutil.HasCode(wrapped, "AUTH_FORBIDDEN"))
	assert.False(t, errutil.HasCode(nil, "STORE_UNAVAILABLE"))
}
