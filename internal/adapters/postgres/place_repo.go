package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/ports"
)

const upsertPlaceSQL = `
	INSERT INTO places (id, name, category, location, address, phone, website,
	                    timezone, hours, hours_text, rating, metadata, updated_at)
	VALUES ($1, $2, $3,
	        CASE WHEN $4::boolean THEN ST_SetSRID(ST_MakePoint($5::float8, $6::float8), 4326)::geography END,
	        $7, $8, $9, $10, $11::jsonb, $12, $13, COALESCE($14::jsonb, '{}'::jsonb),
	        COALESCE($15::timestamptz, now()))
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, category = EXCLUDED.category, location = EXCLUDED.location,
	    address = EXCLUDED.address, phone = EXCLUDED.phone, website = EXCLUDED.website,
	    timezone = EXCLUDED.timezone, hours = EXCLUDED.hours, hours_text = EXCLUDED.hours_text,
	    rating = EXCLUDED.rating, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at
`

const selectPlaceColumns = `
	id, name, COALESCE(category, ''),
	location IS NOT NULL,
	COALESCE(ST_Y(location::geometry), 0) AS lat,
	COALESCE(ST_X(location::geometry), 0) AS lon,
	COALESCE(address, ''), COALESCE(phone, ''), COALESCE(website, ''),
	COALESCE(timezone, ''), COALESCE(hours, '[]'::jsonb), COALESCE(hours_text, ''),
	rating, COALESCE(metadata, '{}'::jsonb), updated_at
`

// PlaceRepo implements ports.PlaceRepository with pgx and PostGIS.
type PlaceRepo struct {
	db *DB
}

// NewPlaceRepo creates a new PlaceRepo.
func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

func placeArgs(p *domain.Place) ([]any, error) {
	hours, err := json.Marshal(p.Hours)
	if err != nil {
		return nil, fmt.Errorf("encode hours: %w", err)
	}
	if p.Hours == nil {
		hours = []byte("[]")
	}
	var updated any
	if !p.UpdatedAt.IsZero() {
		updated = p.UpdatedAt
	}
	return []any{
		p.ID, p.Name, nilEmpty(p.Category),
		p.HasLocation, p.Location.Lon, p.Location.Lat,
		nilEmpty(p.Address), nilEmpty(p.Phone), nilEmpty(p.Website),
		nilEmpty(p.Timezone), hours, nilEmpty(p.HoursText),
		p.Rating, p.Metadata, updated,
	}, nil
}

// Upsert inserts or updates a single place.
func (r *PlaceRepo) Upsert(ctx context.Context, p *domain.Place) error {
	args, err := placeArgs(p)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, upsertPlaceSQL, args...)
	return err
}

// UpsertBatch inserts many places using pgx.Batch.
func (r *PlaceRepo) UpsertBatch(ctx context.Context, places []domain.Place) error {
	batch := &pgx.Batch{}
	for i := range places {
		args, err := placeArgs(&places[i])
		if err != nil {
			return err
		}
		batch.Queue(upsertPlaceSQL, args...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range places {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a place by ID.
func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+selectPlaceColumns+` FROM places WHERE id = $1`, id)
	p, err := scanPlace(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindNearby returns places within radiusMeters using PostGIS ST_DWithin.
func (r *PlaceRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+selectPlaceColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, false) AS distance
		FROM places
		WHERE location IS NOT NULL
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3, false)
		ORDER BY distance, id
		LIMIT $4
	`, center.Lon, center.Lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []domain.Place
	for rows.Next() {
		var dist float64
		p, err := scanPlace(rows, &dist)
		if err != nil {
			return nil, err
		}
		p.Distance = &dist
		places = append(places, *p)
	}
	return places, rows.Err()
}

// Delete removes a place.
func (r *PlaceRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanPlace(row pgx.Row, extra ...any) (*domain.Place, error) {
	var p domain.Place
	var hours []byte
	dest := []any{
		&p.ID, &p.Name, &p.Category,
		&p.HasLocation, &p.Location.Lat, &p.Location.Lon,
		&p.Address, &p.Phone, &p.Website,
		&p.Timezone, &hours, &p.HoursText,
		&p.Rating, &p.Metadata, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(hours, &p.Hours); err != nil {
		return nil, fmt.Errorf("decode hours for %s: %w", p.ID, err)
	}
	if len(p.Hours) == 0 {
		p.Hours = nil
	}
	return &p, nil
}

func nilEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
