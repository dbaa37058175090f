package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/services"
)

const dateLayout = "2006-01-02"

// response is the envelope of every API reply.
type response struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func reply(c *fiber.Ctx, status int, data any, msg string) error {
	return c.Status(status).JSON(response{Success: true, Data: data, Message: msg})
}

func replyList[T any](c *fiber.Ctx, items []T) error {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	return c.JSON(response{Success: true, Count: &n, Data: items})
}

type userView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	IsAdmin   bool       `json:"isAdmin"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

type sessionView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	Token    string `json:"token"`
}

func newSessionView(s *services.Session) sessionView {
	return sessionView{
		ID:       s.User.ID,
		Username: s.User.Username,
		Email:    s.User.Email,
		IsAdmin:  s.User.IsAdmin,
		Token:    s.Token,
	}
}

type batchYearView struct {
	ID        string     `json:"id"`
	Year      int        `json:"year"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func newBatchYearViews(list []*models.BatchYear) []batchYearView {
	out := make([]batchYearView, 0, len(list))
	for _, b := range list {
		created := b.CreatedAt
		out = append(out, batchYearView{ID: b.ID, Year: b.Year, CreatedAt: &created})
	}
	return out
}

type alumnaView struct {
	ID             string        `json:"id"`
	Prefix         string        `json:"prefix"`
	FirstName      string        `json:"firstName"`
	MiddleName     string        `json:"middleName,omitempty"`
	LastName       string        `json:"lastName"`
	Email          string        `json:"email,omitempty"`
	ContactNumber  string        `json:"contactNumber,omitempty"`
	BatchYear      batchYearView `json:"batchYearId"`
	StudentPicture string        `json:"studentPicture,omitempty"`
	CurrentPicture string        `json:"currentPicture,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

func newAlumnaView(a *services.AlumnaDetails) alumnaView {
	return alumnaView{
		ID:             a.ID,
		Prefix:         a.Prefix,
		FirstName:      a.FirstName,
		MiddleName:     a.MiddleName,
		LastName:       a.LastName,
		Email:          a.Email,
		ContactNumber:  a.ContactNumber,
		BatchYear:      batchYearView{ID: a.BatchYearID, Year: a.BatchYear},
		StudentPicture: a.StudentPictureURL,
		CurrentPicture: a.CurrentPictureURL,
		CreatedAt:      a.CreatedAt,
	}
}

func newAlumnaViews(list []*services.AlumnaDetails) []alumnaView {
	out := make([]alumnaView, 0, len(list))
	for _, a := range list {
		out = append(out, newAlumnaView(a))
	}
	return out
}

type groupView struct {
	BatchYear batchYearView `json:"batchYear"`
	Count     int           `json:"count"`
	Alumni    []alumnaView  `json:"alumni"`
}

type creatorView struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type eventView struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	Date           string      `json:"date"`
	Time           string      `json:"time"`
	Location       string      `json:"location"`
	DetailsURL     string      `json:"detailsUrl,omitempty"`
	OrganizerName  string      `json:"organizerName"`
	OrganizerEmail string      `json:"organizerEmail"`
	OrganizerPhone string      `json:"organizerPhone,omitempty"`
	Audience       string      `json:"audience"`
	BatchYear      *int        `json:"batchYear,omitempty"`
	GroupName      string      `json:"groupName,omitempty"`
	CreatedBy      creatorView `json:"createdBy"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func newEventView(e *models.Event) eventView {
	return eventView{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Date:           e.Date.Format(dateLayout),
		Time:           e.Time,
		Location:       e.Location,
		DetailsURL:     e.DetailsURL,
		OrganizerName:  e.OrganizerName,
		OrganizerEmail: e.OrganizerEmail,
		OrganizerPhone: e.OrganizerPhone,
		Audience:       e.Audience,
		BatchYear:      e.BatchYear,
		GroupName:      e.GroupName,
		CreatedBy:      creatorView{ID: e.CreatedBy, Username: e.CreatedByUsername},
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func newEventViews(list []*models.Event) []eventView {
	out := make([]eventView, 0, len(list))
	for _, e := range list {
		out = append(out, newEventView(e))
	}
	return out
}
