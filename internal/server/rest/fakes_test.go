package rest

import (
	"context"
	"io"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/services"
)

type fakeAuth struct {
	session *services.Session
	err     error

	gotLogin    string
	gotPassword string
	logoutToken string
	logoutUser  string
	changedFor  string
}

func (f *fakeAuth) Register(_ context.Context, username, _, password string) (*services.Session, error) {
	f.gotLogin, f.gotPassword = username, password
	return f.session, f.err
}

func (f *fakeAuth) Login(_ context.Context, login, password string) (*services.Session, error) {
	f.gotLogin, f.gotPassword = login, password
	return f.session, f.err
}

func (f *fakeAuth) Logout(_ context.Context, token, userID string) error {
	f.logoutToken, f.logoutUser = token, userID
	return f.err
}

func (f *fakeAuth) ChangePassword(_ context.Context, user *models.User, _, _ string) error {
	f.changedFor = user.ID
	return f.err
}

// fakeGuard maps tokens to users.
type fakeGuard struct {
	users map[string]*models.User
	err   error
}

func (f *fakeGuard) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[token]
	if !ok {
		return nil, common.ErrInvalidToken
	}
	return u, nil
}

type fakeBatchYears struct {
	list    []*models.BatchYear
	err     error
	gotYear int
	deleted string
}

func (f *fakeBatchYears) List(context.Context) ([]*models.BatchYear, error) {
	return f.list, f.err
}

func (f *fakeBatchYears) Create(_ context.Context, year int) (*models.BatchYear, error) {
	f.gotYear = year
	if f.err != nil {
		return nil, f.err
	}
	return &models.BatchYear{ID: "by-1", Year: year}, nil
}

func (f *fakeBatchYears) Delete(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

type fakeAlumni struct {
	list   []*services.AlumnaDetails
	groups []*services.AlumniGroup
	one    *services.AlumnaDetails
	err    error

	gotName    string
	gotFilter  models.AlumnaFilter
	gotFrom    int
	gotTo      int
	gotID      string
	gotInput   services.AlumnaInput
	gotPatch   services.AlumnaPatch
	gotStudent []byte
	gotCurrent []byte
	gotTypes   []string
}

func (f *fakeAlumni) List(context.Context) ([]*services.AlumnaDetails, error) {
	return f.list, f.err
}

func (f *fakeAlumni) Grouped(_ context.Context, name string) ([]*services.AlumniGroup, error) {
	f.gotName = name
	return f.groups, f.err
}

func (f *fakeAlumni) SearchByName(_ context.Context, name string) ([]*services.AlumnaDetails, error) {
	f.gotName = name
	return f.list, f.err
}

func (f *fakeAlumni) AdvancedSearch(_ context.Context, q models.AlumnaFilter) ([]*services.AlumnaDetails, error) {
	f.gotFilter = q
	return f.list, f.err
}

func (f *fakeAlumni) ByYearRange(_ context.Context, from, to int) ([]*services.AlumnaDetails, error) {
	f.gotFrom, f.gotTo = from, to
	return f.list, f.err
}

func (f *fakeAlumni) ByYear(_ context.Context, year int) ([]*services.AlumnaDetails, error) {
	f.gotFrom, f.gotTo = year, year
	return f.list, f.err
}

func (f *fakeAlumni) ByBatch(_ context.Context, id string) ([]*services.AlumnaDetails, error) {
	f.gotID = id
	return f.list, f.err
}

func (f *fakeAlumni) Get(_ context.Context, id string) (*services.AlumnaDetails, error) {
	f.gotID = id
	return f.one, f.err
}

func (f *fakeAlumni) Create(_ context.Context, in services.AlumnaInput, student, current *services.Upload) (*services.AlumnaDetails, error) {
	f.gotInput = in
	f.record(student, current)
	return f.one, f.err
}

func (f *fakeAlumni) Update(_ context.Context, id string, p services.AlumnaPatch, student, current *services.Upload) (*services.AlumnaDetails, error) {
	f.gotID, f.gotPatch = id, p
	f.record(student, current)
	return f.one, f.err
}

func (f *fakeAlumni) UpdateCurrentPicture(_ context.Context, id string, current *services.Upload) (*services.AlumnaDetails, error) {
	f.gotID = id
	f.record(nil, current)
	return f.one, f.err
}

func (f *fakeAlumni) Delete(_ context.Context, id string) error {
	f.gotID = id
	return f.err
}

func (f *fakeAlumni) record(student, current *services.Upload) {
	if student != nil {
		f.gotStudent, _ = io.ReadAll(student.Body)
		f.gotTypes = append(f.gotTypes, student.ContentType)
	}
	if current != nil {
		f.gotCurrent, _ = io.ReadAll(current.Body)
		f.gotTypes = append(f.gotTypes, current.ContentType)
	}
}

type fakeEvents struct {
	list []*models.Event
	one  *models.Event
	err  error

	gotQuery     services.EventQuery
	gotInput     services.EventInput
	gotPatch     services.EventPatch
	gotCreatedBy string
	gotID        string
}

func (f *fakeEvents) List(context.Context) ([]*models.Event, error) {
	return f.list, f.err
}

func (f *fakeEvents) Search(_ context.Context, q services.EventQuery) ([]*models.Event, error) {
	f.gotQuery = q
	return f.list, f.err
}

func (f *fakeEvents) Get(_ context.Context, id string) (*models.Event, error) {
	f.gotID = id
	return f.one, f.err
}

func (f *fakeEvents) Create(_ context.Context, in services.EventInput, createdBy string) (*models.Event, error) {
	f.gotInput, f.gotCreatedBy = in, createdBy
	return f.one, f.err
}

func (f *fakeEvents) Update(_ context.Context, id string, p services.EventPatch) (*models.Event, error) {
	f.gotID, f.gotPatch = id, p
	return f.one, f.err
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	f.gotID = id
	return f.err
}
