package network

import (
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
)

func TestRejectedByAccessPoint(t *testing.T) {
	reason, ok := rejectedByAccessPoint(map[string]interface{}{"DisconnectReason": int32(15)})
	assert.True(t, ok)
	assert.Equal(t, int32(15), reason)

	// locally generated, e.g. when switching away from the current network
	_, ok = rejectedByAccessPoint(map[string]interface{}{"DisconnectReason": int32(-3)})
	assert.False(t, ok)

	_, ok = rejectedByAccessPoint(map[string]interface{}{"DisconnectReason": int32(0)})
	assert.False(t, ok)

	_, ok = rejectedByAccessPoint(map[string]interface{}{"State": "scanning"})
	assert.False(t, ok)
}

func TestFinishRemovalSavesPartialRemoval(t *testing.T) {
	saves := 0
	save := func() error {
		saves++
		return nil
	}

	removed := finishRemoval(noopLogger{}, "HomeNet", 1, errors.New("no such network"), save)
	assert.False(t, removed)
	assert.Equal(t, 1, saves)

	removed = finishRemoval(noopLogger{}, "HomeNet", 2, nil, save)
	assert.True(t, removed)
	assert.Equal(t, 2, saves)

	removed = finishRemoval(noopLogger{}, "HomeNet", 0, nil, save)
	assert.True(t, removed)
	assert.Equal(t, 2, saves)

	removed = finishRemoval(noopLogger{}, "HomeNet", 0, errors.New("no such network"), save)
	assert.False(t, removed)
	assert.Equal(t, 2, saves)
}

func TestFinishRemovalIgnoresSaveFailure(t *testing.T) {
	removed := finishRemoval(noopLogger{}, "HomeNet", 1, nil, func() error {
		return errors.New("read-only config")
	})
	assert.True(t, removed)
}
