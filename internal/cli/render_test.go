package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_DocumentDialects(t *testing.T) {
	out, err := execute(t, "render", "testdata/sum.yaml")
	require.NoError(t, err)
	assert.Equal(t, "1 + 2 * 3\n", out)
}

func TestRender_DialectFlag(t *testing.T) {
	out, err := execute(t, "render", "testdata/doubled.yaml", "--dialect", "pg", "--version", "12")
	require.NoError(t, err)
	assert.Equal(t, "$1 + $1\nargs: [@x]\n", out)

	out, err = execute(t, "render", "testdata/doubled.yaml", "-d", "sqlite", "--placeholders", "dollar")
	require.NoError(t, err)
	assert.Equal(t, "$1 + $1\nargs: [@x]\n", out)
}

func TestRender_PartialFailure(t *testing.T) {
	out, err := execute(t, "render", "testdata/subscript.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 target(s) failed")

	assert.Contains(t, out, "-- PostgreSQL 17.0\n\"t\".\"tags\"[1]\n")
	assert.Contains(t, out, "-- MySQL 8.0\nError [UNSUPPORTED_DIALECT]")
}

func TestRender_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "render", "testdata/subscript.yaml")
	require.Error(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   RenderOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "subscript", resp.Data.Name)
	assert.Equal(t, "text", resp.Data.Type)
	require.Len(t, resp.Data.Targets, 2)
	assert.Equal(t, `"t"."tags"[1]`, resp.Data.Targets[0].SQL)
	assert.Nil(t, resp.Data.Targets[0].Error)
	require.NotNil(t, resp.Data.Targets[1].Error)
	assert.Equal(t, "UNSUPPORTED_DIALECT", resp.Data.Targets[1].Error.Code)
}

func TestRender_ConfigCatalogAndDialect(t *testing.T) {
	out, err := execute(t, "--config", "testdata/exprsql.yaml", "render", "testdata/total.yaml")
	require.NoError(t, err)
	assert.Equal(t, "`orders`.`total` > 10\n", out)
}

func TestRender_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		exitCode int
		code     string
	}{
		{"missing document", "testdata/nope.yaml", ExitCommandError, ErrCodeNotFound},
		{"malformed document", "testdata/malformed.yaml", ExitCommandError, ErrCodeDocument},
		{"construction error", "testdata/arity.yaml", ExitFailure, "ARITY"},
		{"column without catalog", "testdata/total.yaml", ExitFailure, "INVALID_OPERAND"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, "render", tc.path)
			require.Error(t, err)
			assert.Equal(t, tc.exitCode, GetExitCode(err))
			assert.Contains(t, err.Error(), tc.code)
			assert.Contains(t, out, "Error ["+tc.code+"]")
		})
	}
}

func TestRender_BadDialectFlag(t *testing.T) {
	_, err := execute(t, "render", "testdata/sum.yaml", "--dialect", "oracle")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
