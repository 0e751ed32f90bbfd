package hybrid

import (
	"errors"

	"backend-vintrek/internal/completion"
	"backend-vintrek/internal/recording"
	"backend-vintrek/internal/stats"

	"github.com/gofiber/fiber/v2"
)

type completeRequest struct {
	Recording recording.Recording `json:"recording"`
	Location  string              `json:"location"`
}

// RegisterRoutes mounts the completion endpoints. The wallet address
// comes from the authenticated session, never from the request body.
func RegisterRoutes(r fiber.Router, coord *Coordinator, criteria completion.Criteria, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req completeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result := completion.Verify(completion.Metrics{
			DistanceM:      req.Recording.TotalDistanceM,
			DurationSec:    req.Recording.TotalDurationSec,
			ElevationGainM: req.Recording.ElevationGainM,
			Points:         len(req.Recording.Coordinates),
			Active:         req.Recording.IsActive,
		}, criteria)
		if !result.Completed {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"completion": result,
			})
		}

		wallet := walletFrom(c)
		outcome, trail, err := coord.CompleteTrail(c.Context(), wallet, req.Recording, result, req.Location)
		if err != nil {
			return mapError(err)
		}
		if !outcome.Success {
			// Cache write failed: nothing was recorded anywhere.
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"completion": result,
				"sync":       outcome,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"completion": result,
			"trail":      trail,
			"sync":       outcome,
		})
	})

	r.Post("/sync", authMiddleware, func(c *fiber.Ctx) error {
		outcome, err := coord.SyncWithBlockchain(c.Context(), walletFrom(c))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(outcome)
	})

	r.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": coord.Status()})
	})

	r.Get("/:wallet", func(c *fiber.Ctx) error {
		trails, err := coord.History(c.Context(), c.Params("wallet"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{
			"completed_trails": trails,
			"stats":            stats.Compute(trails),
		})
	})
}

func walletFrom(c *fiber.Ctx) string {
	if wallet, ok := c.Locals("wallet_address").(string); ok {
		return wallet
	}
	return ""
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrMissingWallet):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrSyncInProgress):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
