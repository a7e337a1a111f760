package datastore

import "errors"

// Sentinel errors returned by Store operations. Callers should match with
// errors.Is:
//
//	if errors.Is(err, datastore.ErrGroupNotFound) {
//	    // group path does not exist
//	}
var (
	// ErrGroupNotFound is returned when a group path cannot be resolved.
	ErrGroupNotFound = errors.New("datastore: group not found")

	// ErrDatasetExists is returned when writing a dataset whose name is
	// already taken within the target group. Datasets are append-only and
	// are never overwritten.
	ErrDatasetExists = errors.New("datastore: dataset already exists")

	// ErrCorruptDataset is returned when a stored payload does not match
	// its recorded element count.
	ErrCorruptDataset = errors.New("datastore: corrupt dataset payload")
)
