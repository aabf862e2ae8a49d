package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/joulebench/actions"
	"github.com/teranos/joulebench/am"
	"github.com/teranos/joulebench/errors"
)

func testCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}

func TestRenderEnvelope_JSON(t *testing.T) {
	cmd, out := testCommand()
	env := actions.Envelope{Success: true, Data: actions.CompareData{Size: 1000}}

	rendered := false
	err := renderEnvelope(cmd, env, true, func() error {
		rendered = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, rendered, "JSON output bypasses the table renderer")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, true, decoded["success"])
}

func TestRenderEnvelope_FailureKeepsKind(t *testing.T) {
	cmd, out := testCommand()
	env := actions.Fail(errors.NewNotFoundError("no result files in %s", "results"))

	err := renderEnvelope(cmd, env, true, func() error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Contains(t, out.String(), `"kind": "not_found"`)

	err = renderEnvelope(cmd, env, false, func() error {
		t.Fatal("failed envelopes are not rendered")
		return nil
	})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDataSource(t *testing.T) {
	cfg := am.Default()
	cfg.Database.Driver = am.DriverPostgres
	cfg.Database.DSN = "postgres://bench@db/bench"
	dsn, err := dataSource(cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres://bench@db/bench", dsn)

	t.Setenv("DB_PATH", "/tmp/bench-override.db")
	dsn, err = dataSource(am.Default())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/bench-override.db", dsn)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.003", formatFloat(0.003))
	assert.Equal(t, "12.5", formatFloat(12.5))
	assert.Equal(t, "1.23457e+06", formatFloat(1234567))
}
