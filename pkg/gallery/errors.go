package gallery

import (
	"errors"
	"fmt"
)

var (
	ErrConfirmationNotFound = errors.New("delete confirmation not found or already used")
	ErrUploadInProgress     = errors.New("an upload batch is already in progress")
)

/*
ValidationError is raised before any network call when user input is
incomplete. It is meant to be shown inline next to the offending field.
*/
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

/*
PartialBatchFailure reports that some files of an upload batch failed. The
failed files stay in the queue for a retry.
*/
type PartialBatchFailure struct {
	Failed int
	Total  int
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("%d of %d files failed to upload", e.Failed, e.Total)
}
