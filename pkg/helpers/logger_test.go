package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("idsvc", "production", "warn")
	logger.SetOutput(&buf)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	LogInfo(logger, "dropped", nil)
	assert.Zero(t, buf.Len())

	LogError(logger, "boom", errors.New("bad"), logrus.Fields{"user_id": "u-1"})
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "idsvc", entry["app"])
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "bad", entry["error"])
	assert.Equal(t, "u-1", entry["user_id"])
}

func TestNewLogger_DefaultLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("idsvc", "development", "").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("idsvc", "staging", "nonsense").GetLevel())
}
