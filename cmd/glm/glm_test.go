package glm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReferences(t *testing.T) {
	t.Parallel()

	refs, err := parseReferences([]string{"treatment=healthy", "country=kenya"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"treatment": "healthy", "country": "kenya"}, refs)

	refs, err = parseReferences(nil)
	require.NoError(t, err)
	assert.Nil(t, refs)

	_, err = parseReferences([]string{"treatment"})
	require.Error(t, err)
	_, err = parseReferences([]string{"=healthy"})
	require.Error(t, err)
}

func TestResolveInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	existing := filepath.Join(dir, "counts.csv")
	require.NoError(t, os.WriteFile(existing, []byte("count\n1\n"), 0o644))

	assert.Equal(t, existing, resolveInput("/results", existing))
	assert.Equal(t, filepath.Join("/results", "grunt_combined_count.csv"), resolveInput("/results", "grunt_combined_count.csv"))
}
