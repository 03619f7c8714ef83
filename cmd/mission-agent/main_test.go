package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"MYSQL_DSN", "CONFIG_FILE", "API_BASE_URL", "BEARER_TOKEN", "DELAY_TIME",
		"PREFERRED_DIFFICULTY", "ENERGY_THRESHOLD", "ERROR_BACKOFF", "RATE_LIMIT_COOLDOWN",
		"HTTP_TIMEOUT", "REDIS_URL", "STATUS_ADDR", "DISCORD_TOKEN", "DISCORD_CHANNEL_ID",
	} {
		t.Setenv(k, "")
	}
}

func TestDryRunFromConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"bearer_token: test-token-123456\ndelay_time: 100\npreferred_difficulty: hard\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--dry-run", "--config", path})
	assert.NoError(t, cmd.Execute())
}

func TestDryRunRejectsMissingSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("BEARER_TOKEN", "test-token-123456")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"-n"})
	cmd.SetErr(new(discardWriter))
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PREFERRED_DIFFICULTY")
}

func TestRejectsPositionalArgs(t *testing.T) {
	clearEnv(t)
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})
	cmd.SetErr(new(discardWriter))
	assert.Error(t, cmd.Execute())
}

type discardWriter struct{}

func (*discardWriter) Write(p []byte) (int, error) { return len(p), nil }
