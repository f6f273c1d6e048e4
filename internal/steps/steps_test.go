package steps

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_OrderAndLookups(t *testing.T) {
	all := All()
	require.Equal(t, Count(), len(all))
	assert.Equal(t, Identity, all[0])
	assert.Equal(t, Review, all[len(all)-1])
	assert.Equal(t, Review, Terminal())

	for i, id := range all {
		assert.Equal(t, i, Index(id))
		got, ok := ByIndex(i)
		require.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestCatalog_UnknownStep(t *testing.T) {
	assert.Equal(t, -1, Index(ID("warmup")))
	assert.False(t, Valid(ID("warmup")))

	_, ok := ByIndex(-1)
	assert.False(t, ok)
	_, ok = ByIndex(Count())
	assert.False(t, ok)
}

func TestCatalog_AllReturnsCopy(t *testing.T) {
	all := All()
	all[0] = ID("tampered")
	assert.Equal(t, Identity, All()[0])
}

func TestRecord_MergeDoesNotMutateOriginal(t *testing.T) {
	orig := Record{Goals: json.RawMessage(`{"primaryGoal":"strength"}`)}

	merged := orig.Merge(Services, json.RawMessage(`{"package":"online"}`))

	require.Len(t, merged, 2)
	assert.Len(t, orig, 1)
	assert.NotContains(t, orig, Services)
}

func TestRecord_MergeReplacesSingleKey(t *testing.T) {
	rec := Record{}
	rec = rec.Merge(Goals, json.RawMessage(`{"primaryGoal":"strength"}`))
	rec = rec.Merge(Services, json.RawMessage(`{"package":"online"}`))
	rec = rec.Merge(Goals, json.RawMessage(`{"primaryGoal":"fat loss"}`))

	require.Len(t, rec, 2)
	assert.JSONEq(t, `{"primaryGoal":"fat loss"}`, string(rec[Goals]))
	assert.JSONEq(t, `{"package":"online"}`, string(rec[Services]))
}
