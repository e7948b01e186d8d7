package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollectionsCoverEveryStore(t *testing.T) {
	defs := collections()

	for _, name := range []string{"Bookings", "Resources", "Resource_issues", "Timetable_entries", "Key_transactions", "Resource_locks"} {
		def, ok := defs[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, def.Indexes, name)
	}
	assert.Nil(t, defs["Resource_locks"].Validator)
}

func TestOpenKeyIndexIsPartialUnique(t *testing.T) {
	idx := KeyTransactionsIndexes[0]
	require.NotNil(t, idx.Options)
	require.NotNil(t, idx.Options.Unique)
	assert.True(t, *idx.Options.Unique)
	assert.Equal(t, "key_id_open_unique", *idx.Options.Name)

	filter, ok := idx.Options.PartialFilterExpression.(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$in": bson.A{"checked_out", "overdue"}}, filter["status"])
}

func TestLockDocumentsExpire(t *testing.T) {
	idx := LocksIndexes[0]
	require.NotNil(t, idx.Options.ExpireAfterSeconds)
	assert.Equal(t, int32(0), *idx.Options.ExpireAfterSeconds)
}
