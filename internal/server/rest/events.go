package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/alumnae/internal/server/services"
)

func (s *HTTPServer) listEvents(c *fiber.Ctx) error {
	list, err := s.svc.Events.List(c.UserContext())
	if err != nil {
		return err
	}
	return replyList(c, newEventViews(list))
}

func (s *HTTPServer) searchEvents(c *fiber.Ctx) error {
	q := services.EventQuery{
		Keyword:   c.Query("keyword"),
		Year:      c.QueryInt("year"),
		Location:  c.Query("location"),
		BatchYear: c.QueryInt("batchYear"),
	}

	list, err := s.svc.Events.Search(c.UserContext(), q)
	if err != nil {
		return err
	}
	return replyList(c, newEventViews(list))
}

func (s *HTTPServer) getEvent(c *fiber.Ctx) error {
	e, err := s.svc.Events.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return notFound("event", err)
	}
	return reply(c, fiber.StatusOK, newEventView(e), "")
}

func (s *HTTPServer) createEvent(c *fiber.Ctx) error {
	var in services.EventInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}

	e, err := s.svc.Events.Create(c.UserContext(), in, currentUser(c).ID)
	if err != nil {
		return err
	}
	return reply(c, fiber.StatusCreated, newEventView(e), "Event created successfully")
}

func (s *HTTPServer) updateEvent(c *fiber.Ctx) error {
	var p services.EventPatch
	if err := c.BodyParser(&p); err != nil {
		return badRequest("invalid request body")
	}

	e, err := s.svc.Events.Update(c.UserContext(), c.Params("id"), p)
	if err != nil {
		return notFound("event", err)
	}
	return reply(c, fiber.StatusOK, newEventView(e), "Event updated successfully")
}

func (s *HTTPServer) deleteEvent(c *fiber.Ctx) error {
	if err := s.svc.Events.Delete(c.UserContext(), c.Params("id")); err != nil {
		return notFound("event", err)
	}
	return reply(c, fiber.StatusOK, nil, "Event removed successfully")
}
