package index

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinIndex_AddKeepsAscendingOrder(t *testing.T) {
	ji := NewJoinIndex()
	ji.AddUnsafe("article/1", "comment", 5)
	ji.AddUnsafe("article/1", "comment", 2)
	ji.AddUnsafe("article/1", "comment", 9)
	ji.AddUnsafe("article/1", "like", 3)
	ji.AddUnsafe("article/1", "comment", 2)

	assert.Equal(t, []uint32{2, 5, 9}, ji.ChildrenOf("article/1", "comment"))
	assert.Equal(t, []uint32{3}, ji.ChildrenOf("article/1", "like"))
	assert.Empty(t, ji.ChildrenOf("article/2", "comment"))
}

func TestJoinIndex_ChildrenOfReturnsCopy(t *testing.T) {
	ji := NewJoinIndex()
	ji.AddUnsafe("article/1", "comment", 1)

	ids := ji.ChildrenOf("article/1", "comment")
	ids[0] = 99
	assert.Equal(t, []uint32{1}, ji.ChildrenOf("article/1", "comment"))
}

func TestJoinIndex_MoveAndRemove(t *testing.T) {
	ji := NewJoinIndex()
	ji.AddUnsafe("article/1", "comment", 1)
	ji.AddUnsafe("article/1", "comment", 2)

	// Re-parenting moves the child
	ji.AddUnsafe("article/2", "comment", 2)
	assert.Equal(t, []uint32{1}, ji.ChildrenOf("article/1", "comment"))
	assert.Equal(t, []uint32{2}, ji.ChildrenOf("article/2", "comment"))
	assert.Equal(t, "article/2", ji.Parents[2])

	ji.RemoveUnsafe("comment", 1)
	assert.NotContains(t, ji.Children, "article/1")
	assert.NotContains(t, ji.Parents, uint32(1))

	// Removing an unknown child is a no-op
	ji.RemoveUnsafe("comment", 42)
	assert.Len(t, ji.Parents, 1)

	ji.ResetUnsafe()
	assert.Empty(t, ji.Children)
	assert.Empty(t, ji.Parents)
}

func TestJoinIndex_Gob(t *testing.T) {
	ji := NewJoinIndex()
	ji.AddUnsafe("article/1", "comment", 3)
	ji.AddUnsafe("article/1", "comment", 4)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(ji))

	decoded := NewJoinIndex()
	require.NoError(t, gob.NewDecoder(&buf).Decode(decoded))
	assert.Equal(t, []uint32{3, 4}, decoded.ChildrenOf("article/1", "comment"))
	assert.Equal(t, "article/1", decoded.Parents[4])
}
