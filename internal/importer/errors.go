package importer

import "errors"

// ErrImportInProgress is returned when a commit is requested for an org
// that already has one running. Callers should retry after the current
// import finishes; the importer never queues.
var ErrImportInProgress = errors.New("import already in progress for this organization")
