package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedGetters(t *testing.T) {
	t.Setenv("PLANNER_TEST_INT", "42")
	t.Setenv("PLANNER_TEST_BAD_INT", "-3")
	t.Setenv("PLANNER_TEST_BOOL", "yes")
	t.Setenv("PLANNER_TEST_DUR", "90s")
	t.Setenv("PLANNER_TEST_LIST", " a, ,b ")

	assert.Equal(t, 42, Int("PLANNER_TEST_INT", 1))
	assert.Equal(t, 7, Int("PLANNER_TEST_BAD_INT", 7))
	assert.True(t, Bool("PLANNER_TEST_BOOL", false))
	assert.True(t, Bool("PLANNER_TEST_UNSET_BOOL", true))
	assert.Equal(t, 90*time.Second, Duration("PLANNER_TEST_DUR", time.Second))
	assert.Equal(t, []string{"a", "b"}, List("PLANNER_TEST_LIST", ""))

	_, err := Port("PLANNER_TEST_BAD_INT", "8080")
	require.Error(t, err)
	_, err = RequiredString("PLANNER_TEST_MISSING")
	require.Error(t, err)
}

func TestLoadFileDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
PLANNER_FILE_PORT: 9999
PLANNER_FILE_NAME: from-file
PLANNER_FILE_BROKERS:
  - k1:9092
  - k2:9092
`), 0o600))

	t.Setenv("PLANNER_FILE_NAME", "from-env")
	t.Cleanup(func() {
		_ = os.Unsetenv("PLANNER_FILE_PORT")
		_ = os.Unsetenv("PLANNER_FILE_BROKERS")
	})

	n, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "9999", os.Getenv("PLANNER_FILE_PORT"))
	assert.Equal(t, "from-env", os.Getenv("PLANNER_FILE_NAME"))
	assert.Equal(t, "k1:9092,k2:9092", os.Getenv("PLANNER_FILE_BROKERS"))

	n, err = LoadFile("")
	require.NoError(t, err)
	assert.Zero(t, n)
}
