package innerhits

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/internal/query"
	"github.com/gcbaptista/go-inner-hits/services"
)

func testSettings() *config.IndexSettings {
	settings := &config.IndexSettings{
		Name:        "articles",
		NestedPaths: []string{"comments", "comments.replies"},
		ParentTypes: map[string]string{"comment": "article"},
	}
	settings.ApplyDefaults()
	return settings
}

type settingsSchema struct {
	*NestedResolver
	child *ChildResolver
}

func (s settingsSchema) CheckType(childType string) error { return s.child.CheckType(childType) }

func newSchema(settings *config.IndexSettings) query.Schema {
	return settingsSchema{NestedResolver: NewNestedResolver(settings), child: NewChildResolver(settings, nil, nil)}
}

func intPtr(v int) *int { return &v }

func TestParseDefinition_Selector(t *testing.T) {
	settings := testSettings()

	tests := []struct {
		name    string
		req     services.InnerHitRequest
		wantErr string
		want    Selector
	}{
		{name: "neither", req: services.InnerHitRequest{Name: "comment"}, wantErr: MsgSelectorMissing},
		{name: "blank path", req: services.InnerHitRequest{Name: "comment", Path: "  "}, wantErr: MsgSelectorMissing},
		{name: "both", req: services.InnerHitRequest{Name: "comment", Path: "comments", Type: "comment"}, wantErr: MsgSelectorConflict},
		{name: "both without name", req: services.InnerHitRequest{Path: "comments", Type: "comment"}, wantErr: MsgSelectorConflict},
		{name: "path", req: services.InnerHitRequest{Name: "c", Path: "comments"}, want: NestedPath{Path: "comments"}},
		{name: "type", req: services.InnerHitRequest{Name: "c", Type: "comment"}, want: ChildType{Type: "comment"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := ParseDefinition(tt.req, settings)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidInnerHit)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Selector())
		})
	}
}

func TestParseDefinition_Defaults(t *testing.T) {
	settings := testSettings()

	def, err := ParseDefinition(services.InnerHitRequest{Path: "comments"}, settings)
	require.NoError(t, err)
	assert.Equal(t, "comments", def.Name(), "name defaults to the path")
	assert.Equal(t, query.MatchAll{}, def.Query())
	assert.Equal(t, 3, def.Options().Size)
	assert.Equal(t, 0, def.Options().From)
	assert.Equal(t, "comments(path:comments)", def.String())

	def, err = ParseDefinition(services.InnerHitRequest{Type: "comment", Size: intPtr(0)}, settings)
	require.NoError(t, err)
	assert.Equal(t, "comment", def.Name())
	assert.Equal(t, 0, def.Options().Size)
}

func TestParseDefinition_Options(t *testing.T) {
	settings := testSettings()

	tests := []struct {
		name    string
		req     services.InnerHitRequest
		wantErr string
	}{
		{name: "negative from", req: services.InnerHitRequest{Path: "comments", From: -1}, wantErr: "[from] cannot be negative"},
		{name: "negative size", req: services.InnerHitRequest{Path: "comments", Size: intPtr(-2)}, wantErr: "[size] cannot be negative"},
		{name: "window too large", req: services.InnerHitRequest{Path: "comments", From: 90, Size: intPtr(20)}, wantErr: "cannot exceed 100"},
		{name: "bad sort order", req: services.InnerHitRequest{Path: "comments", Sort: []services.SortField{{Field: "date", Order: "up"}}}, wantErr: "invalid sort order"},
		{name: "empty sort field", req: services.InnerHitRequest{Path: "comments", Sort: []services.SortField{{Order: "asc"}}}, wantErr: "sort field cannot be empty"},
		{name: "bad query", req: services.InnerHitRequest{Path: "comments", Query: json.RawMessage(`[]`)}, wantErr: "query must be an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition(tt.req, settings)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidInnerHit)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseDefinition_SortDefaults(t *testing.T) {
	def, err := ParseDefinition(services.InnerHitRequest{
		Path: "comments",
		Sort: []services.SortField{{Field: "_score"}, {Field: "comments.date"}},
	}, testSettings())
	require.NoError(t, err)
	assert.Equal(t, []services.SortField{
		{Field: "_score", Order: "desc"},
		{Field: "comments.date", Order: "asc"},
	}, def.Options().Sort)
}

func TestBuild(t *testing.T) {
	settings := testSettings()
	schema := newSchema(settings)

	t.Run("keeps declaration order", func(t *testing.T) {
		defs, err := Build([]services.InnerHitRequest{
			{Name: "b", Path: "comments"},
			{Name: "a", Type: "comment"},
			{Name: "c", Path: "comments.replies"},
		}, settings, schema)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c"}, defs.Names())
		assert.Equal(t, 3, defs.Len())
		assert.Equal(t, ChildType{Type: "comment"}, defs.At(1).Selector())
	})

	t.Run("empty", func(t *testing.T) {
		defs, err := Build(nil, settings, schema)
		require.NoError(t, err)
		assert.Equal(t, 0, defs.Len())
		assert.Empty(t, defs.Names())
	})

	t.Run("duplicate names", func(t *testing.T) {
		_, err := Build([]services.InnerHitRequest{
			{Name: "a", Path: "comments"},
			{Name: "a", Type: "comment"},
		}, settings, schema)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidInnerHit)
	})

	t.Run("definition errors come before schema errors", func(t *testing.T) {
		_, err := Build([]services.InnerHitRequest{
			{Name: "a", Path: "reviews"},
			{Name: "b"},
		}, settings, schema)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidInnerHit)
		assert.Contains(t, err.Error(), MsgSelectorMissing)
	})

	t.Run("undeclared path", func(t *testing.T) {
		_, err := Build([]services.InnerHitRequest{{Name: "a", Path: "reviews"}}, settings, schema)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrSchemaResolution)
	})

	t.Run("unmapped child type", func(t *testing.T) {
		_, err := Build([]services.InnerHitRequest{{Name: "a", Type: "article"}}, settings, schema)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrSchemaResolution)
	})

	t.Run("scoped query references are checked", func(t *testing.T) {
		_, err := Build([]services.InnerHitRequest{{
			Name:  "a",
			Type:  "comment",
			Query: json.RawMessage(`{"nested": {"path": "reviews", "query": {"match_all": {}}}}`),
		}}, settings, schema)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrSchemaResolution)
		assert.Contains(t, err.Error(), "inner hit [a]")
	})
}

func TestNewDefinition(t *testing.T) {
	_, err := NewNestedDefinition("", "comments", nil, Options{})
	assert.ErrorIs(t, err, errors.ErrInvalidInnerHit)

	_, err = NewChildDefinition("c", "", nil, Options{})
	assert.ErrorIs(t, err, errors.ErrInvalidInnerHit)

	def, err := NewChildDefinition("c", "comment", nil, Options{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, query.MatchAll{}, def.Query())
	assert.Equal(t, 2, NewDefinitions(def, def).Len())
}
