package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = newLogger("loud")
	require.Error(t, err)
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connections:
  default:
    uri: bolt://localhost:7687
targets:
  - name: people
    mapping:
      node:
        label: Person
    key_fields:
      - name: id
        type: str
`), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(path), cfg.Dir)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "people", cfg.Targets[0].Name)
}

func TestNewCommand(t *testing.T) {
	cmd := newCommand()

	var names []string
	for _, c := range cmd.Commands {
		names = append(names, c.Name)
	}

	assert.Equal(t, []string{"setup", "plan", "apply"}, names)
}

func TestTargetFilter(t *testing.T) {
	re, err := targetFilter("")
	require.NoError(t, err)
	assert.Nil(t, re)

	re, err = targetFilter("^peo")
	require.NoError(t, err)
	assert.True(t, re.MatchString("people"))

	_, err = targetFilter("[")
	require.ErrorContains(t, err, "invalid --run pattern")
}

func TestSetupCommand_InvalidFilter(t *testing.T) {
	err := newCommand().Run(context.Background(), []string{"graphsync", "setup", "--run", "["})
	require.ErrorContains(t, err, "invalid --run pattern")
}
