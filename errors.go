package folio

import "github.com/folioworks/folio/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound       = domain.ErrNotFound
	ErrReindexRunning = domain.ErrReindexRunning
)
