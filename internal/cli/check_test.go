package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_SQLiteMemory(t *testing.T) {
	out, err := execute(t, "check", "testdata/sum.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ SQLite ")
	assert.Contains(t, out, "accepts: SELECT 1 + 2 * 3")
	assert.Contains(t, out, "value: 7")
}

func TestCheck_NamedParams(t *testing.T) {
	out, err := execute(t, "--format", "json", "check", "testdata/doubled.yaml",
		"--driver", "sqlite3", "--dsn", ":memory:", "--param", "x=4")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "doubled", resp.Data.Name)
	assert.Equal(t, "SELECT ? + ?", resp.Data.SQL)
	assert.EqualValues(t, 8, resp.Data.Value)
}

func TestCheck_PrepareOnly(t *testing.T) {
	out, err := execute(t, "check", "testdata/doubled.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `no value for parameter "x"`)

	out, err = execute(t, "check", "testdata/doubled.yaml", "--prepare-only")
	require.NoError(t, err)
	assert.Contains(t, out, "accepts: SELECT ? + ?")

	out, err = execute(t, "check", "testdata/sum.yaml", "--prepare-only")
	require.NoError(t, err)
	assert.Contains(t, out, "accepts: SELECT 1 + 2 * 3")
	assert.NotContains(t, out, "value:")
}

func TestCheck_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		exitCode int
		code     string
	}{
		{"unknown driver", []string{"testdata/sum.yaml", "--driver", "oracle"}, ExitCommandError, ErrCodeProbe},
		{"bad mysql dsn", []string{"testdata/sum.yaml", "--driver", "mysql", "--dsn", "no-slash"}, ExitCommandError, ErrCodeProbe},
		{"unsupported on server", []string{"testdata/subscript.yaml"}, ExitFailure, "UNSUPPORTED_DIALECT"},
		{"missing document", []string{"testdata/nope.yaml"}, ExitCommandError, ErrCodeNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"check"}, tc.args...)...)
			require.Error(t, err)
			assert.Equal(t, tc.exitCode, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tc.code+"]")
		})
	}
}
