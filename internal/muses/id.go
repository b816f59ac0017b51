package muses

import "github.com/google/uuid"

// IDProvider issues identifiers for newly created records. Identifiers only
// need to be unique within the archive; time-ordered values keep the feed's
// prepend ordering stable when ids are compared.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues time-ordered UUIDv7 identifiers.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}
