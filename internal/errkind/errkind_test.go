package errkind

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MessageIncludesContext(t *testing.T) {
	t.Parallel()
	err := New(ConcurrentWriteConflict, "jsonio.safe_dump", "/p/meta.json.tmp", errors.New("temp file already exists"))
	assert.Equal(t, "jsonio.safe_dump: /p/meta.json.tmp: temp file already exists", err.Error())
}

func TestError_MessageWithoutWrapped(t *testing.T) {
	t.Parallel()
	err := New(NotFound, "", "", nil)
	assert.Equal(t, "not_found", err.Error())
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	t.Parallel()
	base := New(InvalidMetaType, "enum.commit", "", errors.New("meta must be an object"))
	wrapped := fmt.Errorf("committing enum.a: %w", base)

	assert.Equal(t, InvalidMetaType, KindOf(wrapped))
	assert.True(t, Is(wrapped, InvalidMetaType))
	assert.False(t, Is(wrapped, NotFound))
	assert.False(t, Is(nil, InvalidMetaType))
}

func TestRecoverable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invalid meta", New(InvalidMetaType, "", "", nil), true},
		{"not found", New(NotFound, "", "", nil), true},
		{"write conflict", New(ConcurrentWriteConflict, "", "", nil), false},
		{"neighbor list", New(MissingPrimNeighborList, "", "", nil), false},
		{"unclassified", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recoverable(tt.err))
		})
	}
}
