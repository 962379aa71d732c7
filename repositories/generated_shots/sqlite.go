package generated_shots

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

const insertShotQuery string = `
INSERT INTO generated_shots (id, session_id, engine, image_url, params, timestamp, created_at) VALUES (?, ?, ?, ?, ?, ?, ?);
`

const listShotsBySessionQuery string = `
SELECT id, engine, image_url, params, timestamp FROM generated_shots WHERE session_id = ? ORDER BY timestamp DESC, created_at DESC;
`

const getShotByIDQuery string = `
SELECT id, engine, image_url, params, timestamp FROM generated_shots WHERE id = ?;
`

const deleteShotQuery string = `
DELETE FROM generated_shots WHERE id = ?;
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

func (repo *sqliteRepo) Create(ctx context.Context, sessionID string, shot *entities.GeneratedShot) (*entities.GeneratedShot, error) {
	params, err := json.Marshal(shot.Params)
	if err != nil {
		return nil, err
	}

	_, err = repo.dbConn.ExecContext(ctx, insertShotQuery,
		shot.ID, sessionID, string(shot.Engine), shot.ImageURL, string(params), shot.Timestamp, repo.clock.Now())
	if err != nil {
		return nil, err
	}

	return shot, nil
}

func (repo *sqliteRepo) List(ctx context.Context, sessionID string) ([]entities.GeneratedShot, error) {
	rows, err := repo.dbConn.QueryContext(ctx, listShotsBySessionQuery, sessionID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	shots := []entities.GeneratedShot{}

	for rows.Next() {
		shot, err := scanShot(rows)
		if err != nil {
			return nil, err
		}

		shots = append(shots, *shot)
	}

	return shots, rows.Err()
}

func (repo *sqliteRepo) GetByID(ctx context.Context, id string) (*entities.GeneratedShot, error) {
	shot, err := scanShot(repo.dbConn.QueryRowContext(ctx, getShotByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NewNotFoundError(fmt.Sprintf("generated shot %s", id))
		}

		return nil, err
	}

	return shot, nil
}

func (repo *sqliteRepo) Delete(ctx context.Context, id string) error {
	res, err := repo.dbConn.ExecContext(ctx, deleteShotQuery, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repositories.NewNotFoundError(fmt.Sprintf("generated shot %s", id))
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShot(row scanner) (*entities.GeneratedShot, error) {
	var (
		shot   entities.GeneratedShot
		engine string
		params string
	)

	err := row.Scan(&shot.ID, &engine, &shot.ImageURL, &params, &shot.Timestamp)
	if err != nil {
		return nil, err
	}

	shot.Engine = entities.EngineKind(engine)

	err = json.Unmarshal([]byte(params), &shot.Params)
	if err != nil {
		return nil, fmt.Errorf("decode params of shot %s: %w", shot.ID, err)
	}

	return &shot, nil
}
