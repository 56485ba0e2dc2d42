// Package pricing — repository.go выполняет операции с таблицей racers.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jeanbet.ru/betting-webapp/internal/common"
)

// Repository работает с таблицей racers в БД.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий гонщиков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const racerColumns = `id, name, odds, probability, is_active, image_url, created_at, updated_at`

// List возвращает всех гонщиков (включая неактивных — для админки).
func (r *Repository) List(ctx context.Context) ([]*Racer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+racerColumns+` FROM racers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса гонщиков: %w", err)
	}
	defer rows.Close()
	return scanRacers(rows)
}

// ListActive возвращает гонщиков, принимающих ставки.
func (r *Repository) ListActive(ctx context.Context) ([]*Racer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+racerColumns+` FROM racers WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса активных гонщиков: %w", err)
	}
	defer rows.Close()
	return scanRacers(rows)
}

// GetByID возвращает гонщика по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Racer, error) {
	var rc Racer
	err := r.db.QueryRow(ctx, `SELECT `+racerColumns+` FROM racers WHERE id = $1`, id).Scan(
		&rc.ID, &rc.Name, &rc.Odds, &rc.Probability, &rc.IsActive, &rc.ImageURL,
		&rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrInvalidOutcome
		}
		return nil, fmt.Errorf("ошибка чтения гонщика: %w", err)
	}
	return &rc, nil
}

// Create добавляет нового гонщика.
func (r *Repository) Create(ctx context.Context, rc *Racer) (*Racer, error) {
	var out Racer
	err := r.db.QueryRow(ctx, `
		INSERT INTO racers (name, odds, probability, is_active, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+racerColumns,
		rc.Name, rc.Odds, rc.Probability, rc.IsActive, rc.ImageURL,
	).Scan(
		&out.ID, &out.Name, &out.Odds, &out.Probability, &out.IsActive, &out.ImageURL,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания гонщика: %w", err)
	}
	return &out, nil
}

// Update применяет частичное обновление карточки гонщика.
// COALESCE оставляет прежнее значение для не переданных полей.
func (r *Repository) Update(ctx context.Context, id int64, upd RacerUpdate) (*Racer, error) {
	var out Racer
	err := r.db.QueryRow(ctx, `
		UPDATE racers
		SET name = COALESCE($2, name),
		    odds = COALESCE($3, odds),
		    probability = COALESCE($4, probability),
		    is_active = COALESCE($5, is_active),
		    image_url = COALESCE($6, image_url),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+racerColumns,
		id, upd.Name, upd.Odds, upd.Probability, upd.IsActive, upd.ImageURL,
	).Scan(
		&out.ID, &out.Name, &out.Odds, &out.Probability, &out.IsActive, &out.ImageURL,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrInvalidOutcome
		}
		return nil, fmt.Errorf("ошибка обновления гонщика: %w", err)
	}
	return &out, nil
}

func scanRacers(rows pgx.Rows) ([]*Racer, error) {
	var out []*Racer
	for rows.Next() {
		var rc Racer
		if err := rows.Scan(
			&rc.ID, &rc.Name, &rc.Odds, &rc.Probability, &rc.IsActive, &rc.ImageURL,
			&rc.CreatedAt, &rc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования гонщика: %w", err)
		}
		out = append(out, &rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
