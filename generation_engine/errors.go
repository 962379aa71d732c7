package generation_engine

import (
	"errors"
	"fmt"

	"previz_studio/entities"
)

var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrEmptyResult       = errors.New("engine returned no image")

	errMissingRequest = errors.New("missing request")
)

// TransportError is a non-success response from an engine endpoint.
type TransportError struct {
	Engine entities.EngineKind
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Engine, e.Status, e.Body)
}

func (e *TransportError) Is(err error) bool {
	_, ok := err.(*TransportError)
	return ok
}
