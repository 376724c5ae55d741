package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gcbaptista/go-inner-hits/index"
)

func TestRequiredTerms(t *testing.T) {
	fox := index.FieldTerm{Field: "title", Term: "fox"}
	rabbit := index.FieldTerm{Field: "comments.message", Term: "rabbit"}

	tests := []struct {
		name         string
		body         string
		wantUnit     []index.FieldTerm
		unitOK       bool
		wantDocument []index.FieldTerm
		documentOK   bool
	}{
		{
			name:     "match",
			body:     `{"match": {"title": "Fox"}}`,
			wantUnit: []index.FieldTerm{fox}, unitOK: true,
			wantDocument: []index.FieldTerm{fox}, documentOK: true,
		},
		{
			name: "fuzzy match",
			body: `{"match": {"title": {"query": "fox", "fuzziness": "AUTO"}}}`,
		},
		{
			name:     "match without terms matches nothing",
			body:     `{"match": {"title": "!!"}}`,
			wantUnit: []index.FieldTerm{}, unitOK: true,
			wantDocument: []index.FieldTerm{}, documentOK: true,
		},
		{name: "match_all", body: `{"match_all": {}}`},
		{name: "term", body: `{"term": {"status": "draft"}}`},
		{
			name:         "nested only narrows documents",
			body:         `{"nested": {"path": "comments", "query": {"match": {"comments.message": "rabbit"}}}}`,
			wantDocument: []index.FieldTerm{rabbit}, documentOK: true,
		},
		{name: "has_child", body: `{"has_child": {"type": "comment", "query": {"match": {"message": "fox"}}}}`},
		{
			name:     "bool must picks the first narrowing clause",
			body:     `{"bool": {"must": [{"term": {"status": "draft"}}, {"match": {"title": "fox"}}]}}`,
			wantUnit: []index.FieldTerm{fox}, unitOK: true,
			wantDocument: []index.FieldTerm{fox}, documentOK: true,
		},
		{
			name:     "bool should unions its clauses",
			body:     `{"bool": {"should": [{"match": {"title": "fox"}}, {"match": {"comments.message": "rabbit"}}]}}`,
			wantUnit: []index.FieldTerm{fox, rabbit}, unitOK: true,
			wantDocument: []index.FieldTerm{fox, rabbit}, documentOK: true,
		},
		{
			name: "optional should does not narrow",
			body: `{"bool": {"filter": [{"term": {"status": "draft"}}], "should": [{"match": {"title": "fox"}}]}}`,
		},
		{
			name: "should with an open clause does not narrow",
			body: `{"bool": {"should": [{"match": {"title": "fox"}}, {"range": {"year": {"gte": 2000}}}]}}`,
		},
		{
			name: "must_not does not narrow",
			body: `{"bool": {"must_not": [{"match": {"title": "fox"}}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mustParse(t, tt.body)

			refs, ok := UnitTerms(q)
			assert.Equal(t, tt.unitOK, ok)
			if tt.unitOK {
				assert.ElementsMatch(t, tt.wantUnit, refs)
			}

			refs, ok = DocumentTerms(q)
			assert.Equal(t, tt.documentOK, ok)
			if tt.documentOK {
				assert.ElementsMatch(t, tt.wantDocument, refs)
			}
		})
	}
}
