package storage

import (
	"context"
	"time"

	"backend-vintrek/internal/db"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Service records uploaded trail photos. The bytes live in an external
// object store; only the reference is kept here.
type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) SavePhoto(ctx context.Context, walletAddress, trailID, url string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO trail_photos (id, wallet_address, trail_id, url)
		VALUES ($1,$2,$3,$4)
	`, id, walletAddress, trailID, url)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) PhotosForTrail(ctx context.Context, trailID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT url FROM trail_photos WHERE trail_id=$1 ORDER BY created_at
	`, trailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/photos", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			TrailID  string `json:"trail_id"`
			FileName string `json:"file_name"`
		}
		_ = c.BodyParser(&body)
		if body.FileName == "" {
			body.FileName = "upload"
		}
		wallet, _ := c.Locals("wallet_address").(string)

		url := "https://storage.vintrek.com/photos/" + body.FileName
		id, err := svc.SavePhoto(c.Context(), wallet, body.TrailID, url)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"id":         id,
			"url":        url,
			"expires_at": time.Now().Add(15 * time.Minute),
		})
	})

	r.Get("/photos/:trailID", func(c *fiber.Ctx) error {
		urls, err := svc.PhotosForTrail(c.Context(), c.Params("trailID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"photos": urls})
	})
}
