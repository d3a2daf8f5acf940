// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode fails t unless err carries code. The code of the deepest
// coded error wins, matching what LogError reports.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext fails t unless err was built with key set to value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	kv := oopsOf(t, err).Context()
	if assert.Contains(t, kv, key, "error: %v", err) {
		assert.Equal(t, value, kv[key])
	}
}

// AssertErrorHint fails t unless err carries an operator hint containing
// substr, such as the command that resolves a startup refusal.
func AssertErrorHint(t *testing.T, err error, substr string) {
	t.Helper()
	assert.Contains(t, oopsOf(t, err).Hint(), substr)
}

func oopsOf(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "not an oops error: %T %v", err, err)
	return oopsErr
}
