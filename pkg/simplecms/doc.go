// Package simplecms provides a reusable library for template-bound dynamic
// content with import/export reconciliation across environments.
//
// Operators define templates (ordered lists of typed field definitions) and
// create content documents bound to them; every document write passes through
// a single binder that validates its values against the template's field
// contract, accumulating all failures before rejecting. A lifecycle hook
// pipeline stamps publish times and author/editor identities on every write.
// The export engine snapshots a collection into a versioned envelope, and the
// import engine merges envelopes into a target store by natural key (slug,
// falling back to id) under a configurable conflict policy.
//
// The library consumes three narrow contracts: a DocumentStore (memory and
// Postgres implementations are provided under subpackages), an Identity
// describing the acting user, and a Clock for timestamps. Everything else
// (HTTP wiring, auth, blob storage) lives outside.
package simplecms
