package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

func (s *HTTPServer) listBatchYears(c *fiber.Ctx) error {
	years, err := s.svc.BatchYears.List(c.UserContext())
	if err != nil {
		return err
	}
	return replyList(c, newBatchYearViews(years))
}

func (s *HTTPServer) createBatchYear(c *fiber.Ctx) error {
	var req struct {
		Year int `json:"year"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest("year must be a number")
	}

	b, err := s.svc.BatchYears.Create(c.UserContext(), req.Year)
	if err != nil {
		return err
	}
	return reply(c, fiber.StatusCreated, newBatchYearViews([]*models.BatchYear{b})[0], "")
}

func (s *HTTPServer) deleteBatchYear(c *fiber.Ctx) error {
	if err := s.svc.BatchYears.Delete(c.UserContext(), c.Params("id")); err != nil {
		return notFound("batch year", err)
	}
	return reply(c, fiber.StatusOK, nil, "Batch year removed")
}
