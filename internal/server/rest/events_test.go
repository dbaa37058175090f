package rest

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/services"
)

func sampleEvent() *models.Event {
	year := 2001
	return &models.Event{
		ID:                "e-1",
		Title:             "Homecoming",
		Date:              time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC),
		Time:              "18:30",
		Location:          "Main Hall",
		OrganizerName:     "Alumnae Office",
		OrganizerEmail:    "office@ssa.edu",
		Audience:          models.AudienceBatch,
		BatchYear:         &year,
		CreatedBy:         "u-2",
		CreatedByUsername: "root",
	}
}

func TestListEvents(t *testing.T) {
	ts := newTestServer(t)
	ts.events.list = []*models.Event{sampleEvent()}

	res := ts.doJSON(t, http.MethodGet, "/api/events", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.EqualValues(t, 1, res.Body["count"])

	e := res.Body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "2026-06-20", e["date"])
	assert.EqualValues(t, 2001, e["batchYear"])
	assert.Equal(t, "root", e["createdBy"].(map[string]any)["username"])
}

func TestSearchEvents(t *testing.T) {
	ts := newTestServer(t)

	res := ts.doJSON(t, http.MethodGet, "/api/events/search?keyword=gala&year=2027&location=Manila&batchYear=2001", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, services.EventQuery{Keyword: "gala", Year: 2027, Location: "Manila", BatchYear: 2001}, ts.events.gotQuery)
}

func TestGetEvent_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.events.err = common.ErrorNotFound

	res := ts.doJSON(t, http.MethodGet, "/api/events/e-1", nil, "")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Event not found", res.Body["message"])
}

func TestCreateEvent(t *testing.T) {
	ts := newTestServer(t)
	ts.events.one = sampleEvent()

	payload := map[string]any{
		"title":          "Homecoming",
		"date":           "2026-06-20",
		"time":           "18:30",
		"location":       "Main Hall",
		"organizerName":  "Alumnae Office",
		"organizerEmail": "office@ssa.edu",
		"audience":       "batch",
		"batchYear":      2001,
	}

	res := ts.doJSON(t, http.MethodPost, "/api/events", payload, userToken)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = ts.doJSON(t, http.MethodPost, "/api/events", payload, adminToken)
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "Event created successfully", res.Body["message"])
	assert.Equal(t, "u-2", ts.events.gotCreatedBy)
	require.NotNil(t, ts.events.gotInput.BatchYear)
	assert.Equal(t, 2001, *ts.events.gotInput.BatchYear)
	assert.Equal(t, "batch", ts.events.gotInput.Audience)
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	ts := newTestServer(t)
	ts.events.one = sampleEvent()

	res := ts.doJSON(t, http.MethodPut, "/api/events/e-1", map[string]any{"title": "Gala"}, adminToken)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "e-1", ts.events.gotID)
	require.NotNil(t, ts.events.gotPatch.Title)
	assert.Equal(t, "Gala", *ts.events.gotPatch.Title)
	assert.Nil(t, ts.events.gotPatch.Location)
	assert.Nil(t, ts.events.gotPatch.BatchYear)

	res = ts.doJSON(t, http.MethodDelete, "/api/events/e-1", nil, adminToken)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Event removed successfully", res.Body["message"])
}
