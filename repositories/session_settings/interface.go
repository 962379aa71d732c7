package session_settings

import (
	"context"

	"previz_studio/entities"
)

type Repository interface {
	Upsert(ctx context.Context, setting *entities.SessionSettings) (*entities.SessionSettings, error)
	GetBySessionID(ctx context.Context, sessionID string) (*entities.SessionSettings, error)
}
