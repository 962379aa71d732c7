package generated_shots

import (
	"context"

	"previz_studio/entities"
)

type Repository interface {
	Create(ctx context.Context, sessionID string, shot *entities.GeneratedShot) (*entities.GeneratedShot, error)
	// List returns a session's gallery, newest first.
	List(ctx context.Context, sessionID string) ([]entities.GeneratedShot, error)
	GetByID(ctx context.Context, id string) (*entities.GeneratedShot, error)
	Delete(ctx context.Context, id string) error
}
