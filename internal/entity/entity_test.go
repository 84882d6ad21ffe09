package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNode(t *testing.T) {
	n := NewNode(map[string]any{
		"self": "http://localhost:7474/db/data/node/12",
		"data": map[string]any{"name": "Alice"},
		"metadata": map[string]any{
			"id":     float64(12),
			"labels": []any{"Person"},
		},
	})

	assert.Equal(t, int64(12), n.ID)
	assert.Equal(t, "Alice", n.Data["name"])
	assert.Equal(t, []string{"Person"}, n.Labels)
}

func TestNewNode_Lenient(t *testing.T) {
	n := NewNode("not an object")
	assert.Equal(t, UnknownID, n.ID)
	assert.Nil(t, n.Data)

	n = NewNode(map[string]any{"self": "http://x/db/data/node/abc"})
	assert.Equal(t, UnknownID, n.ID)
}

func TestNewRelationship(t *testing.T) {
	r := NewRelationship(map[string]any{
		"self":  "http://x/db/data/relationship/7",
		"start": "http://x/db/data/node/1",
		"end":   "http://x/db/data/node/2/",
		"type":  "KNOWS",
		"data":  map[string]any{"since": float64(2001)},
	})

	assert.Equal(t, int64(7), r.ID)
	assert.Equal(t, int64(1), r.StartID)
	assert.Equal(t, int64(2), r.EndID)
	assert.Equal(t, "KNOWS", r.Type)
}

func TestNewPath(t *testing.T) {
	p := NewPath(map[string]any{
		"start":         "http://x/db/data/node/1",
		"end":           "http://x/db/data/node/3",
		"nodes":         []any{"http://x/db/data/node/1", "http://x/db/data/node/2", "http://x/db/data/node/3"},
		"relationships": []any{"http://x/db/data/relationship/10", "http://x/db/data/relationship/11"},
	})

	assert.Equal(t, 2, p.Length)
	assert.Equal(t, "1>2>3|10,11", p.Key())

	same := NewPath(map[string]any{
		"start":         "http://y/node/1",
		"end":           "http://y/node/3",
		"nodes":         []any{"http://y/node/1", "http://y/node/2", "http://y/node/3"},
		"relationships": []any{"http://y/relationship/10", "http://y/relationship/11"},
		"length":        float64(2),
	})
	assert.Equal(t, p.Key(), same.Key())
}

func TestPredicates(t *testing.T) {
	var values = []any{NewNode(nil), NewRelationship(nil), NewPath(nil), "scalar", nil}

	assert.True(t, IsNode(values[0]))
	assert.False(t, IsNode(values[1]))
	assert.True(t, IsRelationship(values[1]))
	assert.False(t, IsRelationship(values[0]))
	assert.True(t, IsPath(values[2]))
	for _, v := range values[3:] {
		assert.False(t, IsNode(v) || IsRelationship(v) || IsPath(v))
	}
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("http://x/db/data/node/42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = ParseID("")
	assert.False(t, ok)

	id, ok = ParseID("5")
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)
}
