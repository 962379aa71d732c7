package session_settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"previz_studio/clock"
	"previz_studio/entities"
	"previz_studio/repositories"
)

const upsertSetting string = `
INSERT OR REPLACE INTO session_settings (session_id, engine, credential, scene, updated_at) VALUES (?, ?, ?, ?, ?);
`

const getSettingBySessionID string = `
SELECT session_id, engine, credential, scene, updated_at FROM session_settings WHERE session_id = ?;
`

type sqliteRepo struct {
	dbConn *sql.DB
	clock  clock.Clock
}

type Config struct {
	DB    *sql.DB
	Clock clock.Clock
}

func NewRepository(cfg *Config) (Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("missing DB parameter")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.NewClock()
	}

	newRepo := &sqliteRepo{
		dbConn: cfg.DB,
		clock:  c,
	}

	return newRepo, nil
}

func (repo *sqliteRepo) Upsert(ctx context.Context, setting *entities.SessionSettings) (*entities.SessionSettings, error) {
	scene, err := json.Marshal(setting.Scene)
	if err != nil {
		return nil, err
	}

	setting.UpdatedAt = repo.clock.Now()

	_, err = repo.dbConn.ExecContext(ctx, upsertSetting,
		setting.SessionID, string(setting.Engine), setting.Credential, string(scene), setting.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return setting, nil
}

func (repo *sqliteRepo) GetBySessionID(ctx context.Context, sessionID string) (*entities.SessionSettings, error) {
	var (
		setting entities.SessionSettings
		engine  string
		scene   string
	)

	err := repo.dbConn.QueryRowContext(ctx, getSettingBySessionID, sessionID).Scan(
		&setting.SessionID, &engine, &setting.Credential, &scene, &setting.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NewNotFoundError(fmt.Sprintf("session settings for session ID %s", sessionID))
		}

		return nil, err
	}

	setting.Engine = entities.EngineKind(engine)

	// older rows may hold a partial scene; decode over the defaults
	setting.Scene = entities.DefaultParams()

	err = json.Unmarshal([]byte(scene), &setting.Scene)
	if err != nil {
		return nil, fmt.Errorf("decode scene for session %s: %w", sessionID, err)
	}

	return &setting, nil
}
