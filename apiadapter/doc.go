// Package apiadapter is the single place where loosely typed payloads of the legacy library API
// are mapped to core records.
//
// The legacy API names the same field in several ways (id or _id, author or bookAuthor,
// fullName or name), nests referenced records or sends bare ids, and spells statuses
// inconsistently. Every decoder accepts all those shapes and nothing else: a missing required
// field is a *MissingFieldError, an unknown tier is a *core.InvalidTierError, and no value is guessed.
//
// Legacy ids that are not UUIDs (for example Mongo ObjectIds) are mapped to name-based UUIDs,
// so the same legacy id always yields the same record id.
package apiadapter
