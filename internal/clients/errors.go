package clients

import "github.com/odyssey-erp/catering/internal/shared"

var (
	// ErrNotFound indicates the client does not exist.
	ErrNotFound = shared.NewError(shared.ErrNotFound, "client not found")
	// ErrInUse blocks deletion while documents still reference the client.
	ErrInUse = shared.NewError(shared.ErrConflict, "client is referenced by documents")
)
