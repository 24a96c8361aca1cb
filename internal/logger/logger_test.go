package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l, err := New(true, "debug")
	require.NoError(t, err)
	require.NotNil(t, l)

	l, err = New(false, "INFO")
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = New(false, "loud")
	assert.Error(t, err)
}

func TestNewStderr(t *testing.T) {
	l, err := NewStderr(false, "warn")
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = NewStderr(true, "")
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l, err := New(false, "warn")
	require.NoError(t, err)
	assert.Same(t, l, OrNop(l))
}

func TestTruncateForLog(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "short", in: "hello", limit: 10, want: "hello"},
		{name: "trimmed", in: "  hello  ", limit: 5, want: "hello"},
		{name: "truncated", in: "hello world", limit: 5, want: "hello..."},
		{name: "runes", in: "résumé ✅ ok", limit: 6, want: "résumé..."},
		{name: "zero limit", in: "hello", limit: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateForLog(tt.in, tt.limit))
		})
	}
}
