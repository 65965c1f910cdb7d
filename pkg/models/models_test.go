package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemIDs(t *testing.T) {
	assert.Equal(t, "p1", Post{ID: "p1"}.ItemID())
	assert.Equal(t, "c1", Comment{ID: "c1"}.ItemID())
	assert.Equal(t, "r1", Reply{ID: "r1"}.ItemID())
	assert.Equal(t, "x1", Tombstone{ID: "x1"}.ItemID())
}

func TestPostJSONContract(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(Post{
		ID:        "p1",
		OwnerID:   "u1",
		Username:  "ada",
		Body:      "hello",
		CreatedAt: created,
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	// The wire field names are what browser clients already expect.
	assert.Equal(t, "p1", raw["_id"])
	assert.Equal(t, "u1", raw["ownerId"])
	assert.Equal(t, "hello", raw["post"])
	assert.Contains(t, raw, "createdAt")
	assert.NotContains(t, raw, "avatar")
}

func TestTombstoneOmitsEmptyParents(t *testing.T) {
	data, err := json.Marshal(Tombstone{ID: "p1"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]any{"_id": "p1"}, raw)

	data, err = json.Marshal(Tombstone{ID: "r1", PostID: "p1", CommentID: "c1"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "p1", raw["postId"])
	assert.Equal(t, "c1", raw["commentId"])
}
