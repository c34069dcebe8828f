package port

import "errors"

// ErrVersionConflict is returned by FormRepository.Update when the stored
// version no longer matches the caller's snapshot, meaning another
// transition won the race.
var ErrVersionConflict = errors.New("form version conflict")

// ErrFormMissing is returned by HistoryRepository.Create when the referenced
// form does not exist, so callers can surface not-found instead of a storage
// failure.
var ErrFormMissing = errors.New("referenced form does not exist")
