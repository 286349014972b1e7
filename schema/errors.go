package schema

import "errors"

// Sentinel errors shared by the loader, the engine and the CLI.
var (
	// ErrDatasetUnavailable means the input dataset is missing or unreadable.
	ErrDatasetUnavailable = errors.New("dataset unavailable")

	// ErrInvalidDataset means the dataset has nothing the engine can animate.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrSchema means the tabular input does not have the required columns.
	ErrSchema = errors.New("dataset schema mismatch")
)
