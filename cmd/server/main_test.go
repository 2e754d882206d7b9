package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_MissingConfigReturnsError(t *testing.T) {
	err := run("does-not-exist.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.yml")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger("shouting")
	require.Error(t, err)
}
