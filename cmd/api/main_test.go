package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootLogger(t *testing.T) {
	var buf bytes.Buffer
	l := bootLogger(&buf)
	l.Error().Err(errors.New("JWT_SECRET is required")).Msg("load config")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "boot", line["phase"])
	assert.Equal(t, "load config", line["message"])
	assert.Equal(t, "JWT_SECRET is required", line["error"])
	assert.Contains(t, line, "time")
}
