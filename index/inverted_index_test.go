package index

import (
	"bytes"
	"encoding/gob"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/model"
)

func nested(field string, offset int) *model.NestedIdentity {
	return &model.NestedIdentity{Field: field, Offset: offset}
}

func TestInvertedIndex_AddUnsafeOrdersAndReplaces(t *testing.T) {
	ii := NewInvertedIndex(&config.IndexSettings{Name: "articles"})

	ii.AddUnsafe("fox", PostingEntry{DocID: 2, FieldName: "title", Score: 1})
	ii.AddUnsafe("fox", PostingEntry{DocID: 1, FieldName: "comments.message", Nested: nested("comments", 1), Score: 1})
	ii.AddUnsafe("fox", PostingEntry{DocID: 1, FieldName: "comments.message", Nested: nested("comments", 0), Score: 2})
	ii.AddUnsafe("fox", PostingEntry{DocID: 1, FieldName: "comments.message", Nested: nested("comments", 0), Score: 3})

	list := ii.Index["fox"]
	require.Len(t, list, 3)
	assert.Equal(t, uint32(1), list[0].DocID)
	assert.Equal(t, 0, list[0].Nested.Offset)
	assert.Equal(t, 3.0, list[0].Score, "same unit and field replaces the entry")
	assert.Equal(t, 1, list[1].Nested.Offset)
	assert.Equal(t, uint32(2), list[2].DocID)

	assert.Equal(t, 2, ii.DocFreq("comments.message", "fox"))
	assert.Equal(t, 1, ii.DocFreq("title", "fox"))
	assert.Equal(t, 0, ii.DocFreq("title", "rabbit"))

	assert.Len(t, ii.Postings("fox", ""), 3)
	assert.Len(t, ii.Postings("fox", "title"), 1)

	assert.True(t, ii.HasUnit("fox", "comments.message", 1, nested("comments", 1)))
	assert.False(t, ii.HasUnit("fox", "comments.message", 1, nil))
	assert.True(t, ii.HasUnit("fox", "title", 2, nil))
}

func TestInvertedIndex_DocsWithAny(t *testing.T) {
	ii := NewInvertedIndex(&config.IndexSettings{Name: "articles"})
	ii.AddUnsafe("fox", PostingEntry{DocID: 7, FieldName: "title", Score: 1})
	ii.AddUnsafe("fox", PostingEntry{DocID: 3, FieldName: "comments.message", Nested: nested("comments", 2), Score: 1})
	ii.AddUnsafe("fox", PostingEntry{DocID: 3, FieldName: "comments.message", Nested: nested("comments", 0), Score: 1})
	ii.AddUnsafe("rabbit", PostingEntry{DocID: 5, FieldName: "comments.message", Nested: nested("comments", 1), Score: 1})
	ii.AddUnsafe("rabbit", PostingEntry{DocID: 9, FieldName: "title", Score: 1})

	// Nested postings count for the stored document that owns them
	assert.Equal(t, []uint32{3, 5}, ii.DocsWithAny([]FieldTerm{
		{Field: "comments.message", Term: "fox"},
		{Field: "comments.message", Term: "rabbit"},
	}))
	assert.Equal(t, []uint32{7}, ii.DocsWithAny([]FieldTerm{{Field: "title", Term: "fox"}}))
	assert.Empty(t, ii.DocsWithAny([]FieldTerm{{Field: "title", Term: "elephant"}}))
	assert.Empty(t, ii.DocsWithAny(nil))

	assert.True(t, ii.HasUnit("fox", "comments.message", 3, nested("comments", 2)))
	assert.False(t, ii.HasUnit("fox", "comments.message", 3, nested("comments", 1)))
	assert.False(t, ii.HasUnit("fox", "title", 3, nil))
	assert.False(t, ii.HasUnit("rabbit", "title", 5, nil))
}

func TestInvertedIndex_RemoveDocUnsafe(t *testing.T) {
	ii := NewInvertedIndex(&config.IndexSettings{Name: "articles"})
	ii.AddUnsafe("fox", PostingEntry{DocID: 1, FieldName: "title", Score: 1})
	ii.AddUnsafe("fox", PostingEntry{DocID: 1, FieldName: "comments.message", Nested: nested("comments", 0), Score: 1})
	ii.AddUnsafe("fox", PostingEntry{DocID: 2, FieldName: "title", Score: 1})
	ii.AddUnsafe("rabbit", PostingEntry{DocID: 1, FieldName: "title", Score: 1})

	ii.RemoveDocUnsafe(1)

	assert.NotContains(t, ii.Index, "rabbit")
	require.Len(t, ii.Index["fox"], 1)
	assert.Equal(t, uint32(2), ii.Index["fox"][0].DocID)
}

func TestInvertedIndex_FieldStats(t *testing.T) {
	ii := NewInvertedIndex(&config.IndexSettings{Name: "articles"})

	ii.AddFieldLengthUnsafe("comments.message", 3, 1)
	ii.AddFieldLengthUnsafe("comments.message", 5, 1)
	ii.AddFieldLengthUnsafe("title", 0, 1)

	stat := ii.FieldStats("comments.message")
	assert.Equal(t, FieldStat{DocCount: 2, TotalLength: 8}, stat)
	assert.InDelta(t, 4.0, stat.AverageLength(), 1e-9)
	assert.Equal(t, FieldStat{}, ii.FieldStats("title"), "empty units do not count")
	assert.Zero(t, ii.FieldStats("title").AverageLength())

	ii.AddFieldLengthUnsafe("comments.message", 3, -1)
	ii.AddFieldLengthUnsafe("comments.message", 5, -1)
	assert.NotContains(t, ii.Fields, "comments.message")

	ii.AddFieldLengthUnsafe("missing", 4, -1)
	assert.NotContains(t, ii.Fields, "missing")
}

func TestInvertedIndex_Gob(t *testing.T) {
	settings := &config.IndexSettings{Name: "articles", NestedPaths: []string{"comments"}}
	ii := NewInvertedIndex(settings)
	ii.AddUnsafe("fox", PostingEntry{DocID: 1, FieldName: "comments.message", Nested: nested("comments", 1), Score: 2})
	ii.AddFieldLengthUnsafe("comments.message", 4, 1)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(ii))

	decoded := &InvertedIndex{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(decoded))
	assert.Equal(t, "articles", decoded.Settings.Name)
	assert.Equal(t, []string{"comments"}, decoded.Settings.NestedPaths)
	require.Len(t, decoded.Index["fox"], 1)
	assert.True(t, decoded.Index["fox"][0].Nested.Equal(nested("comments", 1)))
	assert.Equal(t, 1, decoded.FieldStats("comments.message").DocCount)
}

func TestWalkFields(t *testing.T) {
	doc := map[string]interface{}{
		"documentID": "1",
		"title":      "fox",
		"author":     map[string]interface{}{"name": "Ada"},
		"tags":       []interface{}{"a", "b"},
		"sections":   []interface{}{map[string]interface{}{"heading": "intro"}},
		"comments":   []interface{}{map[string]interface{}{"message": "skipped"}},
	}
	isNested := func(path string) bool { return path == "comments" }

	var paths []string
	WalkFields(doc, "", isNested, func(path string, _ interface{}) {
		paths = append(paths, path)
	})
	sort.Strings(paths)
	assert.Equal(t, []string{"author.name", "sections.heading", "tags", "title"}, paths)

	// Inside a nested unit the prefix is the nested path
	var inner []string
	WalkFields(map[string]interface{}{"message": "hi"}, "comments", isNested, func(path string, _ interface{}) {
		inner = append(inner, path)
	})
	assert.Equal(t, []string{"comments.message"}, inner)
}

func TestTextOf(t *testing.T) {
	text, ok := TextOf("quick fox")
	assert.True(t, ok)
	assert.Equal(t, "quick fox", text)

	text, ok = TextOf([]interface{}{"a", 1, "b"})
	assert.True(t, ok)
	assert.Equal(t, "a b", text)

	_, ok = TextOf([]interface{}{1, 2})
	assert.False(t, ok)
	_, ok = TextOf(42.0)
	assert.False(t, ok)
}
