package rest

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/services"
)

const (
	studentPictureField = "studentPicture"
	currentPictureField = "currentPicture"
)

func (s *HTTPServer) listAlumni(c *fiber.Ctx) error {
	list, err := s.svc.Alumni.List(c.UserContext())
	if err != nil {
		return err
	}
	return replyList(c, newAlumnaViews(list))
}

func (s *HTTPServer) groupedAlumni(c *fiber.Ctx) error {
	groups, err := s.svc.Alumni.Grouped(c.UserContext(), c.Query("search"))
	if err != nil {
		return err
	}

	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupView{
			BatchYear: batchYearView{ID: g.BatchYearID, Year: g.BatchYear},
			Count:     len(g.Alumni),
			Alumni:    newAlumnaViews(g.Alumni),
		})
	}
	return replyList(c, out)
}

func (s *HTTPServer) searchAlumni(c *fiber.Ctx) error {
	name := c.Query("name", c.Query("q"))
	list, err := s.svc.Alumni.SearchByName(c.UserContext(), name)
	if err != nil {
		return err
	}
	return replyList(c, newAlumnaViews(list))
}

func (s *HTTPServer) advancedSearchAlumni(c *fiber.Ctx) error {
	f := models.AlumnaFilter{
		Name:          strings.TrimSpace(c.Query("name")),
		Email:         strings.TrimSpace(c.Query("email")),
		ContactNumber: strings.TrimSpace(c.Query("contactNumber")),
		Prefix:        strings.TrimSpace(c.Query("prefix")),
		YearFrom:      c.QueryInt("yearFrom"),
		YearTo:        c.QueryInt("yearTo"),
	}

	list, err := s.svc.Alumni.AdvancedSearch(c.UserContext(), f)
	if err != nil {
		return err
	}
	return replyList(c, newAlumnaViews(list))
}

func (s *HTTPServer) alumniByYearRange(c *fiber.Ctx) error {
	list, err := s.svc.Alumni.ByYearRange(c.UserContext(), c.QueryInt("from"), c.QueryInt("to"))
	if err != nil {
		return err
	}
	return replyList(c, newAlumnaViews(list))
}

func (s *HTTPServer) alumniByBatch(c *fiber.Ctx) error {
	list, err := s.svc.Alumni.ByBatch(c.UserContext(), c.Params("batchYearId"))
	if err != nil {
		return err
	}
	return replyList(c, newAlumnaViews(list))
}

func (s *HTTPServer) alumniByYear(c *fiber.Ctx) error {
	year, err := c.ParamsInt("year")
	if err != nil {
		return badRequest("invalid year format")
	}

	list, err := s.svc.Alumni.ByYear(c.UserContext(), year)
	if err != nil {
		return err
	}
	return replyList(c, newAlumnaViews(list))
}

func (s *HTTPServer) getAlumna(c *fiber.Ctx) error {
	a, err := s.svc.Alumni.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return notFound("alumna", err)
	}
	return reply(c, fiber.StatusOK, newAlumnaView(a), "")
}

func (s *HTTPServer) createAlumna(c *fiber.Ctx) error {
	var in services.AlumnaInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}

	student, closeStudent, err := formUpload(c, studentPictureField)
	if err != nil {
		return err
	}
	defer closeStudent()
	current, closeCurrent, err := formUpload(c, currentPictureField)
	if err != nil {
		return err
	}
	defer closeCurrent()

	a, err := s.svc.Alumni.Create(c.UserContext(), in, student, current)
	if err != nil {
		return err
	}
	return reply(c, fiber.StatusCreated, newAlumnaView(a), "")
}

func (s *HTTPServer) updateAlumna(c *fiber.Ctx) error {
	var p services.AlumnaPatch
	if err := c.BodyParser(&p); err != nil {
		return badRequest("invalid request body")
	}

	student, closeStudent, err := formUpload(c, studentPictureField)
	if err != nil {
		return err
	}
	defer closeStudent()
	current, closeCurrent, err := formUpload(c, currentPictureField)
	if err != nil {
		return err
	}
	defer closeCurrent()

	a, err := s.svc.Alumni.Update(c.UserContext(), c.Params("id"), p, student, current)
	if err != nil {
		return notFound("alumna", err)
	}
	return reply(c, fiber.StatusOK, newAlumnaView(a), "")
}

func (s *HTTPServer) updateCurrentPicture(c *fiber.Ctx) error {
	current, closeCurrent, err := formUpload(c, currentPictureField)
	if err != nil {
		return err
	}
	defer closeCurrent()

	a, err := s.svc.Alumni.UpdateCurrentPicture(c.UserContext(), c.Params("id"), current)
	if err != nil {
		return notFound("alumna", err)
	}
	return reply(c, fiber.StatusOK, newAlumnaView(a), "")
}

func (s *HTTPServer) deleteAlumna(c *fiber.Ctx) error {
	if err := s.svc.Alumni.Delete(c.UserContext(), c.Params("id")); err != nil {
		return notFound("alumna", err)
	}
	return reply(c, fiber.StatusOK, nil, "Alumna removed")
}

// formUpload opens the multipart file in field. A missing file yields a nil
// upload. The returned func closes the file.
func formUpload(c *fiber.Ctx, field string) (*services.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, badRequest("cannot read uploaded file")
	}

	u := &services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}
	return u, func() { _ = f.Close() }, nil
}
