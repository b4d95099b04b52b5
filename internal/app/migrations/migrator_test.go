package migrations

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrdersByName(t *testing.T) {
	dir := fstest.MapFS{
		"002_grades.sql": {Data: []byte("CREATE TABLE grades ();")},
		"001_init.sql":   {Data: []byte("CREATE TABLE schools ();")},
		"README.md":      {Data: []byte("not a migration")},
	}

	migs, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, "001", migs[0].Version)
	assert.Equal(t, "001_init.sql", migs[0].Name)
	assert.Equal(t, "CREATE TABLE schools ();", migs[0].SQL)
	assert.Equal(t, "002", migs[1].Version)
}

func TestLoadRejectsDuplicateVersions(t *testing.T) {
	dir := fstest.MapFS{
		"003_a.sql": {Data: []byte("SELECT 1;")},
		"003_b.sql": {Data: []byte("SELECT 2;")},
	}
	_, err := Load(dir)
	assert.ErrorContains(t, err, "share version 003")
}

func TestShippedMigrationsLoad(t *testing.T) {
	migs, err := Load(os.DirFS("../../../migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, "001", migs[0].Version)
	assert.Contains(t, migs[0].SQL, "admission")

	require.Len(t, migs, 2)
	assert.Equal(t, "002", migs[1].Version)
	assert.Contains(t, migs[1].SQL, "schools_code_base_key")
}
