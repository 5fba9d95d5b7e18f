package simplecms

import (
	"context"
)

// Lifecycle hooks run as an ordered pipeline around every template and
// content-document write. Each hook may mutate the draft before persistence;
// any hook may abort the write by returning an error.

// WriteDraft is the unit of work a hook operates on. Base always points into
// the entity being written; Template or Document is set depending on the
// collection.
type WriteDraft struct {
	Collection string
	IsCreate   bool
	Actor      *Identity

	Base     *ContentBase
	Template *Template
	Document *ContentDocument
}

// Hooks defines the available lifecycle hooks.
type Hooks struct {
	BeforeWrite []BeforeWriteHook
	AfterWrite  []AfterWriteHook
	OnError     []ErrorHook
}

// BeforeWriteHook is called before a write is persisted.
type BeforeWriteHook func(hctx *HookContext, draft *WriteDraft) error

// AfterWriteHook is called after a write has been persisted.
type AfterWriteHook func(hctx *HookContext, draft *WriteDraft) error

// ErrorHook is called when an operation fails.
type ErrorHook func(hctx *HookContext, operation string, err error)

// HookContext carries information through the hook chain.
type HookContext struct {
	Context   context.Context
	Metadata  map[string]any // Custom metadata passed between hooks
	StopChain bool           // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context.
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]any),
	}
}

// executeBeforeWrite runs all BeforeWrite hooks in order.
func (h *Hooks) executeBeforeWrite(ctx context.Context, draft *WriteDraft) error {
	if h == nil || len(h.BeforeWrite) == 0 {
		return nil
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeWrite {
		if err := hook(hctx, draft); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeAfterWrite runs all AfterWrite hooks in order.
func (h *Hooks) executeAfterWrite(ctx context.Context, draft *WriteDraft) error {
	if h == nil || len(h.AfterWrite) == 0 {
		return nil
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterWrite {
		if err := hook(hctx, draft); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeOnError runs all OnError hooks.
func (h *Hooks) executeOnError(ctx context.Context, operation string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}

// PublishStampHook stamps publishedAt the first time status transitions into
// published. Republishing never resets the original publish time.
func PublishStampHook(clock Clock) BeforeWriteHook {
	return func(hctx *HookContext, draft *WriteDraft) error {
		if draft.Base.Status == StatusPublished && draft.Base.PublishedAt == nil {
			now := clock.Now()
			draft.Base.PublishedAt = &now
		}
		return nil
	}
}

// EditorStampHook records the acting identity as the last editor.
func EditorStampHook() BeforeWriteHook {
	return func(hctx *HookContext, draft *WriteDraft) error {
		if draft.Actor != nil {
			draft.Base.UpdatedBy = draft.Actor.ID
		}
		return nil
	}
}

// AuthorDefaultHook fills in the author from the acting identity on first
// create only.
func AuthorDefaultHook() BeforeWriteHook {
	return func(hctx *HookContext, draft *WriteDraft) error {
		if draft.IsCreate && draft.Base.Author == "" && draft.Actor != nil {
			draft.Base.Author = draft.Actor.ID
		}
		return nil
	}
}

// TemplateVersionHook increments the template version counter on every
// update. The counter is monotonically increasing bookkeeping; nothing
// enforces consistency against it.
func TemplateVersionHook() BeforeWriteHook {
	return func(hctx *HookContext, draft *WriteDraft) error {
		if draft.Template != nil && !draft.IsCreate {
			draft.Template.Version++
		}
		return nil
	}
}

// DefaultHooks returns the standard write pipeline in its fixed order:
// publish-stamp, editor-stamp, author-default, template version counter.
func DefaultHooks(clock Clock) *Hooks {
	return &Hooks{
		BeforeWrite: []BeforeWriteHook{
			PublishStampHook(clock),
			EditorStampHook(),
			AuthorDefaultHook(),
			TemplateVersionHook(),
		},
	}
}
