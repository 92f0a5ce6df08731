package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Storage implementations return
// these (optionally wrapped) so the mapping layer can translate them into
// coded domain errors.
//
// These represent factual states about documents, not validation failures:
// - ErrNotFound: document does not exist in the collection
// - ErrConflict: write conflicted with existing state
// - ErrUnavailable: store temporarily unreachable
//
// For validation errors (bad input, malformed fields), use pkg/domainerrors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
