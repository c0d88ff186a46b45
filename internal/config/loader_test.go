package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("NB_TEST_HOST", "db.internal")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "env var set",
			input: "host: ${NB_TEST_HOST:localhost}",
			want:  "host: db.internal",
		},
		{
			name:  "fallback to default",
			input: "port: ${NB_TEST_PORT:5432}",
			want:  "port: 5432",
		},
		{
			name:  "empty default",
			input: "password: ${NB_TEST_PASSWORD:}",
			want:  "password: ",
		},
		{
			name:  "no default keeps placeholder",
			input: "secret: ${NB_TEST_SECRET}",
			want:  "secret: ${NB_TEST_SECRET}",
		},
		{
			name:  "multiple placeholders",
			input: "${NB_TEST_HOST:x}:${NB_TEST_PORT:6379}",
			want:  "db.internal:6379",
		},
		{
			name:  "plain text untouched",
			input: "level: info",
			want:  "level: info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.input))
		})
	}
}

func TestExpandEnvPrefersEnvOverDefault(t *testing.T) {
	t.Setenv("NB_TEST_KEEP", "10")

	got := expandEnv("keep: ${NB_TEST_KEEP:50}")
	require.Equal(t, "keep: 10", got)
}
