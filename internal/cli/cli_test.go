package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/config"
)

func newCmd(run func() error) *cobra.Command {
	return &cobra.Command{
		Use:  "demo A B",
		Long: "Please provide two arguments.",
		Args: ExactArgs(2),
		RunE: func(*cobra.Command, []string) error { return run() },
	}
}

func TestExecuteUsageError(t *testing.T) {
	var stderr bytes.Buffer
	called := false
	code := Execute(newCmd(func() error { called = true; return nil }), []string{"only-one"}, &stderr)

	assert.Equal(t, apperr.ExitUsage, code)
	assert.False(t, called)
	assert.Contains(t, stderr.String(), "Usage:")
	assert.Contains(t, stderr.String(), "Please provide two arguments.")
}

func TestExecuteMapsErrors(t *testing.T) {
	var stderr bytes.Buffer
	code := Execute(newCmd(func() error {
		return fmt.Errorf("load: %w", apperr.ErrInputNotFound)
	}), []string{"a", "b"}, &stderr)

	assert.Equal(t, apperr.ExitInputNotFound, code)
	assert.Contains(t, stderr.String(), "Error: load: input not found")
}

func TestExecuteSuccess(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, apperr.ExitOK, Execute(newCmd(func() error { return nil }), []string{"a", "b"}, &stderr))
	assert.Empty(t, stderr.String())
}

func TestDatabaseFor(t *testing.T) {
	got := DatabaseFor(config.DatabaseConfig{Driver: "sqlite", DSN: "default.db", Table: "Disaster"}, "data/x.db")
	assert.Equal(t, config.DatabaseConfig{Driver: "sqlite", DSN: "data/x.db", Table: "Disaster"}, got)

	mysql := config.DatabaseConfig{Driver: "mysql", DSN: "user@tcp(db)/dr", Table: "Disaster"}
	assert.Equal(t, mysql, DatabaseFor(mysql, "ignored.db"))
}
