package log_test

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-zen/kiro-engine/log"
)

func TestWithUIDTagsEveryEntry(t *testing.T) {
	base, hook := test.NewNullLogger()

	logger := log.WithUID(base, "engine-1")
	logger.Info("render plan compiled")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "engine-1", entry.Data["uid"])
	assert.Equal(t, "render plan compiled", entry.Message)
}
