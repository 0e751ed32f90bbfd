package trails

import (
	"context"
	"errors"

	"backend-vintrek/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("trail not found")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreateTrail(ctx context.Context, input Trail) (Trail, error) {
	input.ID = uuid.NewString()
	input.Available = true
	row := s.db.QueryRow(ctx, `
		INSERT INTO trails (id, name, description, location, difficulty, distance_m, duration_sec,
		                    start_point, elevation_m, features, contributed_by, available)
		VALUES ($1,$2,$3,$4,$5,$6,$7, ST_SetSRID(ST_MakePoint($8,$9), 4326)::geography, $10, $11, $12, $13)
		RETURNING created_at
	`, input.ID, input.Name, input.Description, input.Location, input.Difficulty,
		input.DistanceM, input.DurationSec, input.Lng, input.Lat, input.ElevationM,
		input.Features, input.ContributedBy, input.Available)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trail{}, err
	}
	return input, nil
}

func (s *Service) GetTrail(ctx context.Context, id string) (Trail, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, location, difficulty, distance_m, duration_sec,
		       ST_Y(start_point::geometry), ST_X(start_point::geometry),
		       COALESCE(elevation_m,0), features, COALESCE(contributed_by,''), available, created_at
		FROM trails WHERE id=$1
	`, id)
	var t Trail
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Location, &t.Difficulty, &t.DistanceM,
		&t.DurationSec, &t.Lat, &t.Lng, &t.ElevationM, &t.Features, &t.ContributedBy, &t.Available, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trail{}, ErrNotFound
	}
	if err != nil {
		return Trail{}, err
	}
	return t, nil
}

func (s *Service) ListTrails(ctx context.Context, limit int) ([]Trail, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, location, difficulty, distance_m, duration_sec,
		       ST_Y(start_point::geometry), ST_X(start_point::geometry),
		       COALESCE(elevation_m,0), features, COALESCE(contributed_by,''), available, created_at
		FROM trails
		WHERE available = true
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrails(rows)
}

// Nearby lists available trails whose start point is within radiusM
// meters, closest first.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusM float64) ([]Trail, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, location, difficulty, distance_m, duration_sec,
		       ST_Y(start_point::geometry), ST_X(start_point::geometry),
		       COALESCE(elevation_m,0), features, COALESCE(contributed_by,''), available, created_at
		FROM trails
		WHERE available = true
		  AND ST_DWithin(start_point, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		ORDER BY ST_Distance(start_point, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography)
	`, lng, lat, radiusM)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrails(rows)
}

// RecordAccess notes a visit. Trails are free to access, so this is an
// audit record, not a booking.
func (s *Service) RecordAccess(ctx context.Context, trailID, walletAddress string) (Access, error) {
	if _, err := s.GetTrail(ctx, trailID); err != nil {
		return Access{}, err
	}

	access := Access{ID: uuid.NewString(), TrailID: trailID, WalletAddress: walletAddress}
	row := s.db.QueryRow(ctx, `
		INSERT INTO trail_access (id, trail_id, wallet_address)
		VALUES ($1,$2,$3)
		RETURNING accessed_at
	`, access.ID, access.TrailID, access.WalletAddress)
	if err := row.Scan(&access.AccessedAt); err != nil {
		return Access{}, err
	}
	return access, nil
}

func (s *Service) AccessHistory(ctx context.Context, walletAddress string) ([]Access, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trail_id, wallet_address, accessed_at
		FROM trail_access
		WHERE wallet_address=$1
		ORDER BY accessed_at DESC
	`, walletAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Access
	for rows.Next() {
		var a Access
		if err := rows.Scan(&a.ID, &a.TrailID, &a.WalletAddress, &a.AccessedAt); err != nil {
			return nil, err
		}
		history = append(history, a)
	}
	return history, rows.Err()
}

func scanTrails(rows pgx.Rows) ([]Trail, error) {
	var trails []Trail
	for rows.Next() {
		var t Trail
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Location, &t.Difficulty, &t.DistanceM,
			&t.DurationSec, &t.Lat, &t.Lng, &t.ElevationM, &t.Features, &t.ContributedBy, &t.Available, &t.CreatedAt); err != nil {
			return nil, err
		}
		trails = append(trails, t)
	}
	return trails, rows.Err()
}
