package logging

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("warn", "json", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger, err = NewLogger("debug", "text", filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("loud", "json", "")
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	logger, hook := test.NewNullLogger()
	ctx := WithLogger(context.Background(), logger.WithField("request_id", "abc"))

	FromContext(ctx).Warn("cache miss")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "abc", hook.LastEntry().Data["request_id"])
}

func TestFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}
