package migrations

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "0001", versionOf("0001_init.sql"))
	assert.Equal(t, "0002", versionOf("0002_add_notification_index.sql"))
	assert.Equal(t, "seed.sql", versionOf("seed.sql"))
}

func TestSQLFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "README.md", "0010_c.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700))

	files, err := sqlFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql", "0010_c.sql"}, files)
}

func TestSQLFilesMissingDirectory(t *testing.T) {
	_, err := sqlFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRepositoryMigrationsPresent(t *testing.T) {
	files, err := sqlFiles(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001", versionOf(files[0]))
}

func TestSchemaTimestampsCarryZone(t *testing.T) {
	dir := filepath.Join("..", "..", "..", "migrations")
	files, err := sqlFiles(dir)
	require.NoError(t, err)

	columnType := regexp.MustCompile(`(?i)\bTIMESTAMP(TZ)?\b`)
	for _, name := range files {
		body, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		for _, m := range columnType.FindAllStringSubmatch(string(body), -1) {
			assert.NotEmpty(t, m[1], "%s declares a TIMESTAMP column without a zone", name)
		}
	}
}
