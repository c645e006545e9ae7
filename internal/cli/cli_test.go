package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AD_SERVER", "AD_BASE_DN", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS", "JWT_SIGNING_KEY"} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandWiring(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"reconcile", "serve", "diagnose", "migrate"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestReconcileRejectsIncompleteConfig(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "reconcile")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory host is required")
}

func TestConfigFileErrors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "reconcile", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hrsync.yaml")
		require.NoError(t, os.WriteFile(path, []byte("directory: [unterminated"), 0o600))

		_, err := execute(t, "reconcile", "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func TestServeRequiresSigningKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("AD_SERVER", "dc01.example.local")
	t.Setenv("AD_BASE_DN", "DC=example,DC=local")

	_, err := execute(t, "serve")

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
}

func TestDiagnoseRequiresHost(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "diagnose")

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
}

func TestMigrateRequiresDatabase(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "migrate")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
