package simplecms_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

func envelopeOf(t *testing.T, collection string, records []simplecms.RawDocument) simplecms.ExportEnvelope {
	t.Helper()
	env, err := simplecms.NewExportEnvelope(collection, records, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return *env
}

func pageRecord(slug, templateID, title string) simplecms.RawDocument {
	return simplecms.RawDocument{
		"slug":     slug,
		"status":   "draft",
		"template": templateID,
		"fieldValues": []any{
			map[string]any{"fieldName": "title", "fieldType": "text", "value": title},
		},
	}
}

func TestImportInvalidEnvelope(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	env := envelopeOf(t, simplecms.CollectionPages, nil)
	env.FormatVersion = ""

	result, err := svc.ImportCollection(ctx, simplecms.ImportRequest{Envelope: env})
	assert.ErrorIs(t, err, simplecms.ErrInvalidEnvelopeFormat)
	assert.Nil(t, result)
}

func TestImportCreatesNewRecords(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := &simplecms.Identity{ID: "importer-1"}
	tpl := publishedPageTemplate(t, svc, actor)

	record := pageRecord("home", tpl.ID, "Home")
	record["id"] = "foreign-id-123"
	env := envelopeOf(t, simplecms.CollectionPages, []simplecms.RawDocument{record})

	result, err := svc.ImportCollection(ctx, simplecms.ImportRequest{Envelope: env, Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)

	// The destination assigns its own identity.
	doc, err := svc.GetDocumentBySlug(ctx, simplecms.CollectionPages, "home")
	require.NoError(t, err)
	assert.NotEqual(t, "foreign-id-123", doc.ID)
	assert.NotEmpty(t, doc.ID)
	require.Len(t, doc.FieldValues, 1)
	assert.Equal(t, "Home", doc.FieldValues[0].Value)
}

func TestImportConflictHandling(t *testing.T) {
	setup := func(t *testing.T) (simplecms.Service, *simplecms.Template, *simplecms.ContentDocument) {
		svc, _ := setupTestService(t)
		actor := &simplecms.Identity{ID: "editor-1"}
		tpl := publishedPageTemplate(t, svc, actor)
		doc, err := svc.CreateDocument(context.Background(), simplecms.CreateDocumentRequest{
			Collection:  simplecms.CollectionPages,
			Slug:        "home",
			TemplateID:  tpl.ID,
			FieldValues: []simplecms.FieldValueBlock{{FieldName: "title", Value: "Original"}},
			Actor:       actor,
		})
		require.NoError(t, err)
		return svc, tpl, doc
	}

	t.Run("default reports the conflict", func(t *testing.T) {
		svc, tpl, _ := setup(t)
		env := envelopeOf(t, simplecms.CollectionPages, []simplecms.RawDocument{pageRecord("home", tpl.ID, "Imported")})

		result, err := svc.ImportCollection(context.Background(), simplecms.ImportRequest{Envelope: env})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Success)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "record already exists: home", result.Errors[0])

		// Existing record untouched.
		doc, err := svc.GetDocumentBySlug(context.Background(), simplecms.CollectionPages, "home")
		require.NoError(t, err)
		assert.Equal(t, "Original", doc.FieldValues[0].Value)
	})

	t.Run("skip existing is silent", func(t *testing.T) {
		svc, tpl, _ := setup(t)
		env := envelopeOf(t, simplecms.CollectionPages, []simplecms.RawDocument{pageRecord("home", tpl.ID, "Imported")})

		result, err := svc.ImportCollection(context.Background(), simplecms.ImportRequest{Envelope: env, SkipExisting: true})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Success)
		assert.Equal(t, 0, result.Failed)
		assert.Empty(t, result.Errors)
	})

	t.Run("overwrite replaces but keeps identity", func(t *testing.T) {
		svc, tpl, existing := setup(t)
		env := envelopeOf(t, simplecms.CollectionPages, []simplecms.RawDocument{pageRecord("home", tpl.ID, "Imported")})

		result, err := svc.ImportCollection(context.Background(), simplecms.ImportRequest{Envelope: env, Overwrite: true})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Success)
		assert.Equal(t, 0, result.Failed)

		doc, err := svc.GetDocumentBySlug(context.Background(), simplecms.CollectionPages, "home")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, doc.ID)
		assert.Equal(t, "Imported", doc.FieldValues[0].Value)
	})
}

func TestImportPartialBatch(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := &simplecms.Identity{ID: "importer-1"}
	tpl := publishedPageTemplate(t, svc, actor)

	env := envelopeOf(t, simplecms.CollectionPages, []simplecms.RawDocument{
		pageRecord("good", tpl.ID, "Good"),
		pageRecord("bad", "missing-template", "Bad"),
		pageRecord("also-good", tpl.ID, "Also Good"),
	})

	result, err := svc.ImportCollection(ctx, simplecms.ImportRequest{Envelope: env, Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "bad")

	// The records around the failure landed.
	_, err = svc.GetDocumentBySlug(ctx, simplecms.CollectionPages, "good")
	assert.NoError(t, err)
	_, err = svc.GetDocumentBySlug(ctx, simplecms.CollectionPages, "also-good")
	assert.NoError(t, err)
}

func TestImportTemplates(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := &simplecms.Identity{ID: "importer-1"}

	env := envelopeOf(t, simplecms.CollectionTemplates, []simplecms.RawDocument{
		{
			"slug":         "imported-page",
			"templateType": "page",
			"status":       "published",
			"fields": []any{
				map[string]any{"fieldType": "text", "fieldName": "title", "required": true},
			},
		},
		{
			"slug":         "broken-template",
			"templateType": "page",
			"status":       "draft",
			"fields":       []any{},
		},
	})

	result, err := svc.ImportCollection(ctx, simplecms.ImportRequest{Envelope: env, Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)

	tpl, err := svc.GetTemplateBySlug(ctx, "imported-page")
	require.NoError(t, err)
	assert.Equal(t, simplecms.TemplateTypePage, tpl.TemplateType)
	require.Len(t, tpl.Fields, 1)

	// An imported published template is immediately bindable.
	_, err = svc.CreateDocument(ctx, simplecms.CreateDocumentRequest{
		Collection:  simplecms.CollectionPages,
		Slug:        "from-import",
		TemplateID:  tpl.ID,
		FieldValues: []simplecms.FieldValueBlock{{FieldName: "title", Value: "From Import"}},
		Actor:       actor,
	})
	assert.NoError(t, err)
}

func TestImportKeylessRecordsAlwaysCreate(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := &simplecms.Identity{ID: "importer-1"}
	tpl := publishedPageTemplate(t, svc, actor)

	record := pageRecord("", tpl.ID, "Nameless")
	delete(record, "slug")
	env := envelopeOf(t, simplecms.CollectionPages, []simplecms.RawDocument{record})

	// Importing the same keyless record twice creates two records.
	first, err := svc.ImportCollection(ctx, simplecms.ImportRequest{Envelope: env, Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Success)

	second, err := svc.ImportCollection(ctx, simplecms.ImportRequest{Envelope: env, Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Success)

	docs, err := svc.ListDocuments(ctx, simplecms.ListDocumentsRequest{Collection: simplecms.CollectionPages})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
