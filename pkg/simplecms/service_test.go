package simplecms_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
)

func setupTestService(t *testing.T, extra ...simplecms.Option) (simplecms.Service, *fixedClock) {
	t.Helper()
	clock := newFixedClock()
	opts := append([]simplecms.Option{
		simplecms.WithStore(memory.New()),
		simplecms.WithClock(clock),
	}, extra...)
	svc, err := simplecms.New(opts...)
	require.NoError(t, err)
	return svc, clock
}

func pageTemplateFields() []simplecms.FieldDefinition {
	return []simplecms.FieldDefinition{
		{FieldType: simplecms.FieldTypeText, FieldName: "title", Required: true},
		{FieldType: simplecms.FieldTypeRichText, FieldName: "body"},
		{FieldType: simplecms.FieldTypeImage, FieldName: "hero"},
	}
}

func publishedPageTemplate(t *testing.T, svc simplecms.Service, actor *simplecms.Identity) *simplecms.Template {
	t.Helper()
	ctx := context.Background()
	tpl, err := svc.CreateTemplate(ctx, simplecms.CreateTemplateRequest{
		Slug:         "standard-page",
		TemplateType: simplecms.TemplateTypePage,
		Fields:       pageTemplateFields(),
		Actor:        actor,
	})
	require.NoError(t, err)
	tpl, err = svc.PublishTemplate(ctx, tpl.ID, actor)
	require.NoError(t, err)
	return tpl
}

func TestServiceCreation(t *testing.T) {
	t.Run("no store should fail", func(t *testing.T) {
		_, err := simplecms.New()
		assert.Error(t, err)
	})

	t.Run("with store should succeed", func(t *testing.T) {
		svc, err := simplecms.New(simplecms.WithStore(memory.New()))
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestTemplateLifecycle(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()
	actor := &simplecms.Identity{ID: "editor-1", Role: simplecms.RoleAdmin}

	tpl, err := svc.CreateTemplate(ctx, simplecms.CreateTemplateRequest{
		Slug:         "Landing Page",
		TemplateType: simplecms.TemplateTypePage,
		Fields:       pageTemplateFields(),
		Actor:        actor,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, "landing-page", tpl.Slug)
	assert.Equal(t, simplecms.StatusDraft, tpl.Status)
	assert.Equal(t, 1, tpl.Version)
	assert.Equal(t, clock.now, tpl.CreatedAt)
	assert.Equal(t, "editor-1", tpl.UpdatedBy)
	assert.Nil(t, tpl.PublishedAt)

	t.Run("duplicate slug rejected", func(t *testing.T) {
		_, err := svc.CreateTemplate(ctx, simplecms.CreateTemplateRequest{
			Slug:         "landing page",
			TemplateType: simplecms.TemplateTypePage,
			Fields:       pageTemplateFields(),
			Actor:        actor,
		})
		assert.ErrorIs(t, err, simplecms.ErrRecordExists)
	})

	t.Run("lookup by id and slug", func(t *testing.T) {
		got, err := svc.GetTemplate(ctx, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, tpl.ID, got.ID)

		bySlug, err := svc.GetTemplateBySlug(ctx, "landing-page")
		require.NoError(t, err)
		assert.Equal(t, tpl.ID, bySlug.ID)

		_, err = svc.GetTemplate(ctx, "no-such-id")
		assert.ErrorIs(t, err, simplecms.ErrTemplateNotFound)
	})

	t.Run("contract unavailable while draft", func(t *testing.T) {
		_, err := svc.ResolveFieldContract(ctx, tpl.ID)
		assert.ErrorIs(t, err, simplecms.ErrTemplateNotPublished)
	})

	t.Run("publish stamps and bumps version", func(t *testing.T) {
		published, err := svc.PublishTemplate(ctx, tpl.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, simplecms.StatusPublished, published.Status)
		assert.Equal(t, 2, published.Version)
		require.NotNil(t, published.PublishedAt)
		assert.Equal(t, clock.now, *published.PublishedAt)

		// Publishing again is a no-op.
		again, err := svc.PublishTemplate(ctx, tpl.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, 2, again.Version)
		assert.Equal(t, *published.PublishedAt, *again.PublishedAt)
	})

	t.Run("contract resolves once published", func(t *testing.T) {
		fields, err := svc.ResolveFieldContract(ctx, tpl.ID)
		require.NoError(t, err)
		assert.Len(t, fields, 3)
		assert.Equal(t, "title", fields[0].FieldName)
	})

	t.Run("field edits validated and versioned", func(t *testing.T) {
		_, err := svc.UpdateTemplate(ctx, simplecms.UpdateTemplateRequest{
			ID: tpl.ID,
			Fields: []simplecms.FieldDefinition{
				{FieldType: simplecms.FieldTypeText, FieldName: "title"},
				{FieldType: simplecms.FieldTypeText, FieldName: "title"},
			},
			Actor: actor,
		})
		assert.ErrorIs(t, err, simplecms.ErrDuplicateFieldName)

		updated, err := svc.UpdateTemplate(ctx, simplecms.UpdateTemplateRequest{
			ID: tpl.ID,
			Fields: []simplecms.FieldDefinition{
				{FieldType: simplecms.FieldTypeText, FieldName: "title", Required: true},
				{FieldType: simplecms.FieldTypeRichText, FieldName: "body"},
			},
			Actor: actor,
		})
		require.NoError(t, err)
		assert.Len(t, updated.Fields, 2)
		assert.Equal(t, 3, updated.Version)
	})

	t.Run("archived template cannot be published", func(t *testing.T) {
		archived, err := svc.ArchiveTemplate(ctx, tpl.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, simplecms.StatusArchived, archived.Status)

		_, err = svc.PublishTemplate(ctx, tpl.ID, actor)
		assert.ErrorIs(t, err, simplecms.ErrTemplateNotPublished)
	})
}

func TestDocumentLifecycle(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()
	actor := &simplecms.Identity{ID: "editor-1", Role: simplecms.RoleUser}

	t.Run("binding requires a published template", func(t *testing.T) {
		draft, err := svc.CreateTemplate(ctx, simplecms.CreateTemplateRequest{
			Slug:         "draft-only",
			TemplateType: simplecms.TemplateTypePage,
			Fields:       pageTemplateFields(),
			Actor:        actor,
		})
		require.NoError(t, err)

		_, err = svc.CreateDocument(ctx, simplecms.CreateDocumentRequest{
			Collection:  simplecms.CollectionPages,
			Slug:        "home",
			TemplateID:  draft.ID,
			FieldValues: []simplecms.FieldValueBlock{{FieldName: "title", Value: "Home"}},
			Actor:       actor,
		})
		assert.ErrorIs(t, err, simplecms.ErrTemplateNotPublished)
	})

	tpl := publishedPageTemplate(t, svc, actor)

	doc, err := svc.CreateDocument(ctx, simplecms.CreateDocumentRequest{
		Collection: simplecms.CollectionPages,
		Slug:       "Home Page",
		TemplateID: tpl.ID,
		FieldValues: []simplecms.FieldValueBlock{
			{FieldName: "hero", Value: "media-1"},
			{FieldName: "title", Value: "Home"},
		},
		Actor: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "home-page", doc.Slug)
	assert.Equal(t, simplecms.StatusDraft, doc.Status)
	assert.Equal(t, tpl.ID, doc.Template)
	assert.Equal(t, "editor-1", doc.Author)
	assert.Equal(t, clock.now, doc.CreatedAt)
	// Values come back in template field order.
	require.Len(t, doc.FieldValues, 2)
	assert.Equal(t, "title", doc.FieldValues[0].FieldName)
	assert.Equal(t, "hero", doc.FieldValues[1].FieldName)

	t.Run("unknown collection rejected", func(t *testing.T) {
		_, err := svc.CreateDocument(ctx, simplecms.CreateDocumentRequest{
			Collection: "widgets",
			Slug:       "w",
			TemplateID: tpl.ID,
			Actor:      actor,
		})
		assert.ErrorIs(t, err, simplecms.ErrUnknownCollection)
	})

	t.Run("template type must match collection", func(t *testing.T) {
		_, err := svc.CreateDocument(ctx, simplecms.CreateDocumentRequest{
			Collection:  simplecms.CollectionComponents,
			Slug:        "header",
			TemplateID:  tpl.ID,
			FieldValues: []simplecms.FieldValueBlock{{FieldName: "title", Value: "Header"}},
			Actor:       actor,
		})
		assert.ErrorIs(t, err, simplecms.ErrTemplateTypeMismatch)
	})

	t.Run("invalid values reported per field", func(t *testing.T) {
		_, err := svc.CreateDocument(ctx, simplecms.CreateDocumentRequest{
			Collection: simplecms.CollectionPages,
			Slug:       "broken",
			TemplateID: tpl.ID,
			FieldValues: []simplecms.FieldValueBlock{
				{FieldName: "title", Value: 42},
			},
			Actor: actor,
		})
		var verr *simplecms.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.For("title"), 1)
	})

	t.Run("update re-binds values", func(t *testing.T) {
		updated, err := svc.UpdateDocument(ctx, simplecms.UpdateDocumentRequest{
			Collection: simplecms.CollectionPages,
			ID:         doc.ID,
			FieldValues: []simplecms.FieldValueBlock{
				{FieldName: "title", Value: "Welcome"},
			},
			Actor: actor,
		})
		require.NoError(t, err)
		require.Len(t, updated.FieldValues, 1)
		assert.Equal(t, "Welcome", updated.FieldValues[0].Value)

		_, err = svc.UpdateDocument(ctx, simplecms.UpdateDocumentRequest{
			Collection:  simplecms.CollectionPages,
			ID:          doc.ID,
			FieldValues: []simplecms.FieldValueBlock{{FieldName: "unknown", Value: "x"}},
			Actor:       actor,
		})
		assert.ErrorIs(t, err, simplecms.ErrUnknownField)
	})

	t.Run("slug uniqueness within the collection", func(t *testing.T) {
		_, err := svc.CreateDocument(ctx, simplecms.CreateDocumentRequest{
			Collection:  simplecms.CollectionPages,
			Slug:        "home page",
			TemplateID:  tpl.ID,
			FieldValues: []simplecms.FieldValueBlock{{FieldName: "title", Value: "Duplicate"}},
			Actor:       actor,
		})
		assert.ErrorIs(t, err, simplecms.ErrRecordExists)
	})

	t.Run("publish document stamps publishedAt", func(t *testing.T) {
		status := simplecms.StatusPublished
		published, err := svc.UpdateDocument(ctx, simplecms.UpdateDocumentRequest{
			Collection: simplecms.CollectionPages,
			ID:         doc.ID,
			Status:     &status,
			Actor:      actor,
		})
		require.NoError(t, err)
		require.NotNil(t, published.PublishedAt)
		assert.Equal(t, clock.now, *published.PublishedAt)
	})

	t.Run("archive keeps the record", func(t *testing.T) {
		archived, err := svc.ArchiveDocument(ctx, simplecms.CollectionPages, doc.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, simplecms.StatusArchived, archived.Status)

		got, err := svc.GetDocument(ctx, simplecms.CollectionPages, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, simplecms.StatusArchived, got.Status)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		require.NoError(t, svc.DeleteDocument(ctx, simplecms.CollectionPages, doc.ID, actor))

		_, err := svc.GetDocument(ctx, simplecms.CollectionPages, doc.ID)
		assert.ErrorIs(t, err, simplecms.ErrDocumentNotFound)

		err = svc.DeleteDocument(ctx, simplecms.CollectionPages, doc.ID, actor)
		assert.ErrorIs(t, err, simplecms.ErrDocumentNotFound)
	})
}

func TestListDocuments(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := &simplecms.Identity{ID: "editor-1"}
	tpl := publishedPageTemplate(t, svc, actor)

	for _, slug := range []string{"alpha", "beta", "gamma"} {
		_, err := svc.CreateDocument(ctx, simplecms.CreateDocumentRequest{
			Collection:  simplecms.CollectionPages,
			Slug:        slug,
			TemplateID:  tpl.ID,
			FieldValues: []simplecms.FieldValueBlock{{FieldName: "title", Value: slug}},
			Actor:       actor,
		})
		require.NoError(t, err)
	}

	all, err := svc.ListDocuments(ctx, simplecms.ListDocumentsRequest{Collection: simplecms.CollectionPages})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byTemplate, err := svc.ListDocuments(ctx, simplecms.ListDocumentsRequest{
		Collection: simplecms.CollectionPages,
		TemplateID: &tpl.ID,
	})
	require.NoError(t, err)
	assert.Len(t, byTemplate, 3)

	published, err := svc.ListDocuments(ctx, simplecms.ListDocumentsRequest{
		Collection: simplecms.CollectionPages,
		Status:     statusRef(simplecms.StatusPublished),
	})
	require.NoError(t, err)
	assert.Empty(t, published)
}

func TestAccessChecks(t *testing.T) {
	denyWrites := func(actor *simplecms.Identity, collection string, action simplecms.Action) bool {
		return action == simplecms.ActionRead
	}
	svc, _ := setupTestService(t, simplecms.WithAccessCheck(denyWrites))
	ctx := context.Background()

	_, err := svc.CreateTemplate(ctx, simplecms.CreateTemplateRequest{
		Slug:         "blocked",
		TemplateType: simplecms.TemplateTypePage,
		Fields:       pageTemplateFields(),
	})
	assert.ErrorIs(t, err, simplecms.ErrAccessDenied)

	_, err = svc.CreateDocument(ctx, simplecms.CreateDocumentRequest{
		Collection: simplecms.CollectionPages,
		Slug:       "blocked",
		TemplateID: "whatever",
	})
	assert.ErrorIs(t, err, simplecms.ErrAccessDenied)

	err = svc.DeleteDocument(ctx, simplecms.CollectionPages, "whatever", nil)
	assert.ErrorIs(t, err, simplecms.ErrAccessDenied)
}

func statusRef(s simplecms.Status) *simplecms.Status { return &s }
