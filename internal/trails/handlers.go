package trails

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var input Trail
		if err := c.BodyParser(&input); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if input.Name == "" || input.Location == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and location required")
		}
		if wallet, ok := c.Locals("wallet_address").(string); ok && input.ContributedBy == "" {
			input.ContributedBy = wallet
		}

		trail, err := svc.CreateTrail(c.Context(), input)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(trail)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
		lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
		if err1 != nil || err2 != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng query params required")
		}
		radius := c.QueryFloat("radius_m", 10000)

		found, err := svc.Nearby(c.Context(), lat, lng, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(found)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		list, err := svc.ListTrails(c.Context(), c.QueryInt("limit", 50))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(list)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		trail, err := svc.GetTrail(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(trail)
	})

	r.Post("/:id/access", authMiddleware, func(c *fiber.Ctx) error {
		wallet, _ := c.Locals("wallet_address").(string)
		if wallet == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "wallet session required")
		}

		access, err := svc.RecordAccess(c.Context(), c.Params("id"), wallet)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(access)
	})
}
