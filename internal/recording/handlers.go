package recording

import (
	"errors"

	"backend-vintrek/internal/completion"
	"backend-vintrek/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, mgr *Manager, criteria completion.Criteria, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		rec, err := mgr.Start(req.Name, req.Description)
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	r.Post("/:id/points", authMiddleware, func(c *fiber.Ctx) error {
		var coord geo.Coordinate
		if err := c.BodyParser(&coord); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		accepted, err := mgr.AddPoint(c.Params("id"), coord)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"accepted": accepted})
	})

	r.Post("/:id/pause", authMiddleware, func(c *fiber.Ctx) error {
		if err := mgr.Pause(c.Params("id")); err != nil {
			return mapError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/resume", authMiddleware, func(c *fiber.Ctx) error {
		if err := mgr.Resume(c.Params("id")); err != nil {
			return mapError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/stop", authMiddleware, func(c *fiber.Ctx) error {
		rec, err := mgr.Stop(c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		result := completion.Verify(completion.Metrics{
			DistanceM:      rec.TotalDistanceM,
			DurationSec:    rec.TotalDurationSec,
			ElevationGainM: rec.ElevationGainM,
			Points:         len(rec.Coordinates),
		}, criteria)
		return c.JSON(fiber.Map{
			"recording":  rec,
			"completion": result,
		})
	})

	r.Get("/:id/stats", func(c *fiber.Ctx) error {
		stats, err := mgr.Stats(c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(stats)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		rec, err := mgr.Snapshot(c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(rec)
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidCoordinate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyActive), errors.Is(err, ErrNotActive):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
