package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 仅冲突与不可用族可以重试，持久性错误立即上抛
func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"commit conflict", New(CodeCommitConflict, "version number taken"), true},
		{"generic conflict", New(CodeConflict, "conflict"), true},
		{"service unavailable", New(CodeServiceUnavailable, "redis down"), true},
		{"database error", New(CodeDatabaseError, "constraint violation"), false},
		{"not found", New(CodeNotebookNotFound, "missing"), false},
		{"invalid keep count", New(CodeInvalidKeepCount, "keep count must be positive"), false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}
