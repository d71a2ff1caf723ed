package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestToolsCommand(t *testing.T) {
	t.Run("lists the built-in catalog", func(t *testing.T) {
		out, err := execute(t, "tools")
		require.NoError(t, err)
		assert.Contains(t, out, "SLUG")
		assert.Contains(t, out, "blast")
		assert.Regexp(t, `\n\d+ tools\n$`, out)
	})

	t.Run("filters by category as JSON", func(t *testing.T) {
		out, err := execute(t, "tools", "--json", "--category", "search & alignment")
		require.NoError(t, err)

		var rows []toolRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.NotEmpty(t, rows)
		for _, r := range rows {
			assert.Equal(t, "Search & Alignment", r.Category)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := execute(t, "tools", "--category", "astrology")
		assert.ErrorContains(t, err, `no tools in category "astrology"`)
	})

	t.Run("rejects an invalid catalog file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tools: []\n"), 0o600))
		_, err := execute(t, "tools", "--catalog", path)
		assert.Error(t, err)
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "helixdash version dev\n", out)
}
