package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaSQL_SubstitutesPrefix(t *testing.T) {
	ddl := SchemaSQL("test_")

	tables := NewTableNames("test_")
	for _, name := range []string{tables.Episodes, tables.Paragraphs, tables.Cards, tables.Documents} {
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+name+" ")
	}
	assert.NotContains(t, ddl, "dev_")
	assert.Contains(t, ddl, "REFERENCES test_episodes(id) ON DELETE CASCADE")
}

func TestStorageIDs(t *testing.T) {
	ids := StorageIDs([]string{"temp-1", "9b2f6c1e-8a4d-4c3b-9e8f-1a2b3c4d5e6f", "nope"})
	assert.Equal(t, []string{"9b2f6c1e-8a4d-4c3b-9e8f-1a2b3c4d5e6f"}, ids)
	assert.False(t, IsStorageID("temp-1"))
}
