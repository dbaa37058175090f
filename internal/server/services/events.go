package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/alumnae/internal/server/validation"
)

// Date layouts accepted for an event date.
var eventDateLayouts = []string{"2006-01-02", time.RFC3339}

// EventInput carries the editable fields of an event.
type EventInput struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=1000"`
	Date           string `json:"date" validate:"required"`
	Time           string `json:"time" validate:"required,hhmm"`
	Location       string `json:"location" validate:"required,max=300"`
	DetailsURL     string `json:"detailsUrl" validate:"omitempty,max=500,httpurl"`
	OrganizerName  string `json:"organizerName" validate:"required,max=100"`
	OrganizerEmail string `json:"organizerEmail" validate:"required,email"`
	OrganizerPhone string `json:"organizerPhone" validate:"omitempty,phone"`
	Audience       string `json:"audience" validate:"omitempty,oneof=batch group alumnae"`
	BatchYear      *int   `json:"batchYear"`
	GroupName      string `json:"groupName" validate:"max=100"`
}

// EventPatch carries the fields of an update request. Nil fields keep
// their stored value.
type EventPatch struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Date           *string `json:"date"`
	Time           *string `json:"time"`
	Location       *string `json:"location"`
	DetailsURL     *string `json:"detailsUrl"`
	OrganizerName  *string `json:"organizerName"`
	OrganizerEmail *string `json:"organizerEmail"`
	OrganizerPhone *string `json:"organizerPhone"`
	Audience       *string `json:"audience"`
	BatchYear      *int    `json:"batchYear"`
	GroupName      *string `json:"groupName"`
}

func (p EventPatch) merge(in EventInput) EventInput {
	for _, f := range []struct {
		src *string
		dst *string
	}{
		{p.Title, &in.Title},
		{p.Description, &in.Description},
		{p.Date, &in.Date},
		{p.Time, &in.Time},
		{p.Location, &in.Location},
		{p.DetailsURL, &in.DetailsURL},
		{p.OrganizerName, &in.OrganizerName},
		{p.OrganizerEmail, &in.OrganizerEmail},
		{p.OrganizerPhone, &in.OrganizerPhone},
		{p.Audience, &in.Audience},
		{p.GroupName, &in.GroupName},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if p.BatchYear != nil {
		in.BatchYear = p.BatchYear
	}
	return in
}

// EventQuery holds the search parameters of the events search endpoint.
type EventQuery struct {
	Keyword   string
	Year      int
	Location  string
	BatchYear int
}

type EventService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validator   *validation.Validator
	clock       auth.Clock
	logger      logging.Logger
}

func NewEventService(db *sql.DB, m repomanager.RepositoryManager, v *validation.Validator, clock auth.Clock, logger logging.Logger) *EventService {
	if clock == nil {
		clock = auth.SystemClock{}
	}
	return &EventService{db: db, repomanager: m, validator: v, clock: clock, logger: logger.With("module", "events")}
}

// List returns all events in chronological order.
func (s *EventService) List(ctx context.Context) ([]*models.Event, error) {
	list, err := s.repomanager.Events(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "list events", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Search filters events. A year before the current one is rejected; without
// a year only events from today on are returned.
func (s *EventService) Search(ctx context.Context, q EventQuery) ([]*models.Event, error) {
	now := s.clock.Now()
	if q.Year != 0 && q.Year < now.Year() {
		return nil, fmt.Errorf("%w: year must be the current year or later", common.ErrValidation)
	}

	f := models.EventFilter{
		Keyword:   strings.TrimSpace(q.Keyword),
		Year:      q.Year,
		Location:  strings.TrimSpace(q.Location),
		BatchYear: q.BatchYear,
		From:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}

	list, err := s.repomanager.Events(s.db).Search(ctx, f)
	if err != nil {
		s.logger.Error(ctx, "search events", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	e, err := s.repomanager.Events(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "get event", "id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return e, nil
}

// Create stores a new event owned by createdBy.
func (s *EventService) Create(ctx context.Context, in EventInput, createdBy string) (*models.Event, error) {
	e := &models.Event{CreatedBy: createdBy}
	if err := s.apply(e, in); err != nil {
		return nil, err
	}

	created, err := s.repomanager.Events(s.db).Create(ctx, e)
	if err != nil {
		s.logger.Error(ctx, "create event", "error", err)
		return nil, common.ErrorInternal
	}
	return s.Get(ctx, created.ID)
}

// Update applies the fields present in p to event id and validates the
// merged event.
func (s *EventService) Update(ctx context.Context, id string, p EventPatch) (*models.Event, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(e, p.merge(eventInputOf(e))); err != nil {
		return nil, err
	}

	if err := s.repomanager.Events(s.db).Update(ctx, e); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "update event", "id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return s.Get(ctx, id)
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	if err := s.repomanager.Events(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "delete event", "id", id, "error", err)
		return common.ErrorInternal
	}
	return nil
}

// apply validates in and copies it onto e. The batch year is kept only for
// batch events and the group name only for group events.
func (s *EventService) apply(e *models.Event, in EventInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.DetailsURL = strings.TrimSpace(in.DetailsURL)
	in.OrganizerName = strings.TrimSpace(in.OrganizerName)
	in.OrganizerEmail = strings.ToLower(strings.TrimSpace(in.OrganizerEmail))
	in.OrganizerPhone = strings.TrimSpace(in.OrganizerPhone)
	in.GroupName = strings.TrimSpace(in.GroupName)
	if in.Audience == "" {
		in.Audience = models.AudienceAlumnae
	}

	if err := s.validator.Struct(&in); err != nil {
		return err
	}

	date, err := parseEventDate(in.Date)
	if err != nil {
		return err
	}

	switch in.Audience {
	case models.AudienceBatch:
		if in.BatchYear == nil {
			return fmt.Errorf("%w: batch year is required when audience is batch", common.ErrValidation)
		}
		if err := checkYear(*in.BatchYear, s.clock); err != nil {
			return err
		}
		in.GroupName = ""
	case models.AudienceGroup:
		if in.GroupName == "" {
			return fmt.Errorf("%w: group name is required when audience is group", common.ErrValidation)
		}
		in.BatchYear = nil
	default:
		in.BatchYear = nil
		in.GroupName = ""
	}

	e.Title = in.Title
	e.Description = in.Description
	e.Date = date
	e.Time = in.Time
	e.Location = in.Location
	e.DetailsURL = in.DetailsURL
	e.OrganizerName = in.OrganizerName
	e.OrganizerEmail = in.OrganizerEmail
	e.OrganizerPhone = in.OrganizerPhone
	e.Audience = in.Audience
	e.BatchYear = in.BatchYear
	e.GroupName = in.GroupName
	return nil
}

func eventInputOf(e *models.Event) EventInput {
	return EventInput{
		Title:          e.Title,
		Description:    e.Description,
		Date:           e.Date.UTC().Format(eventDateLayouts[0]),
		Time:           e.Time,
		Location:       e.Location,
		DetailsURL:     e.DetailsURL,
		OrganizerName:  e.OrganizerName,
		OrganizerEmail: e.OrganizerEmail,
		OrganizerPhone: e.OrganizerPhone,
		Audience:       e.Audience,
		BatchYear:      e.BatchYear,
		GroupName:      e.GroupName,
	}
}

func parseEventDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date must be in YYYY-MM-DD format", common.ErrValidation)
}
