package backup

import "errors"

var (
	// ErrNothingToBackup aborts a full export when the catalog is empty.
	ErrNothingToBackup = errors.New("nothing to back up: catalog is empty")

	// ErrInvalidBackup rejects an archive or JSON file whose metadata does
	// not match what this build expects. Raised before anything live is
	// touched.
	ErrInvalidBackup = errors.New("invalid backup file")

	// ErrCancelled is the distinguished non-error outcome of a dismissed
	// file picker or share sheet. Never shown as a failure.
	ErrCancelled = errors.New("cancelled by user")

	// ErrRestoreFatal marks a failure after the live database file was
	// already swapped. No automatic rollback exists; local state needs
	// rebuilding.
	ErrRestoreFatal = errors.New("restore failed after database swap")
)
