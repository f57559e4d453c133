package server

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"listinglab/internal/ai"
	"listinglab/internal/extractor"
	"listinglab/internal/optimizer"
	"listinglab/internal/store"
	"listinglab/internal/upstream"
)

// Handler exposes the optimizer service over HTTP.
type Handler struct {
	Service *optimizer.Service
}

type asinRequest struct {
	ASIN string `json:"asin"`
}

// ListProducts returns every stored product row.
func (h *Handler) ListProducts(c *fiber.Ctx) error {
	products, err := h.Service.Products()
	if err != nil {
		return fail(c, err, "Failed to list products")
	}
	return c.JSON(products)
}

// Fetch scrapes the requested ASIN and persists the listing.
func (h *Handler) Fetch(c *fiber.Ctx) error {
	var req asinRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.ASIN) == "" {
		return fail(c, optimizer.ErrInvalidInput, "")
	}

	listing, err := h.Service.FetchAndSave(c.UserContext(), req.ASIN)
	if err != nil {
		return fail(c, err, "Failed to fetch product details")
	}
	return c.JSON(fiber.Map{"success": true, "data": listing})
}

// Optimize generates an optimized listing for the requested ASIN and appends
// it to the product's history.
func (h *Handler) Optimize(c *fiber.Ctx) error {
	var req asinRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.ASIN) == "" {
		return fail(c, optimizer.ErrInvalidInput, "")
	}

	optimized, err := h.Service.Optimize(c.UserContext(), req.ASIN)
	if err != nil {
		return fail(c, err, "Optimization failed")
	}
	return c.JSON(fiber.Map{"success": true, "data": optimized})
}

// History returns all optimizations for the ASIN path parameter, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	history, err := h.Service.History(c.Params("asin"))
	if err != nil {
		return fail(c, err, "Failed to fetch history")
	}
	return c.JSON(fiber.Map{"success": true, "history": history})
}

// fail maps service errors to HTTP statuses. Collaborator failures arrive
// unmodified; the body carries a stable failure kind plus a generic message,
// and the wrapped detail goes to the log.
func fail(c *fiber.Ctx, err error, message string) error {
	var (
		upErr  *upstream.Error
		exErr  *extractor.Error
		genErr *ai.GenerationError
	)
	switch {
	case errors.Is(err, optimizer.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid_input", "message": "ASIN required",
		})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not_found", "message": "ASIN not found",
		})
	case errors.As(err, &upErr):
		return serverError(c, err, "upstream_failure", message)
	case errors.As(err, &exErr):
		return serverError(c, err, "extraction_failure", message)
	case errors.As(err, &genErr):
		return serverError(c, err, "generation_failure", message)
	default:
		return serverError(c, err, "store_failure", message)
	}
}

func serverError(c *fiber.Ctx, err error, kind, message string) error {
	log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": kind, "message": message,
	})
}
