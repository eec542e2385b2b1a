package birthday

import "context"

// Store persists the full birthday document. The document is written in full
// on every mutation; there is no incremental diffing or append log. Load
// returns an empty, initialized document when no state has been written yet.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
