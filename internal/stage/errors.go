package stage

import (
	"errors"

	"pressline/internal/services"
)

var collaboratorMarkers = []error{
	services.ErrRateLimit,
	services.ErrEmptyResult,
	services.ErrConfiguration,
	services.ErrExternalTool,
	services.ErrTransient,
	services.ErrTimeout,
}

// CollaboratorError makes sure a collaborator failure carries a marker that
// decides how it is logged and persisted. Errors that are already marked are
// returned unchanged; anything else becomes an external failure.
func CollaboratorError(stageName, operation string, err error) error {
	if err == nil {
		return nil
	}
	for _, marker := range collaboratorMarkers {
		if errors.Is(err, marker) {
			return err
		}
	}
	return services.Wrap(services.ErrExternalTool, stageName, operation, "", err)
}

// EmptyResult builds the soft failure for a collaborator that answered with
// nothing usable.
func EmptyResult(stageName, operation, message string) error {
	return services.Wrap(services.ErrEmptyResult, stageName, operation, message, nil)
}
