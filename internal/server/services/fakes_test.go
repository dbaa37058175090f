package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/dbx"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/alumni"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/batchyears"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/events"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// --- users ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	byID  map[string]models.User
	err   error
	saves int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]models.User{}}
}

func (f *fakeUsersRepo) put(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	f.byID[u.ID] = u
	return &u
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	for _, x := range f.byID {
		if strings.EqualFold(x.Username, u.Username) || strings.EqualFold(x.Email, u.Email) {
			f.mu.Unlock()
			return nil, common.ErrorAlreadyExists
		}
	}
	f.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = time.Now()
	created := f.put(*u)
	u.ID = created.ID
	return u, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (f *fakeUsersRepo) GetByLogin(_ context.Context, login string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Exists(_ context.Context, username, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) SaveLoginState(_ context.Context, u *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.LoginAttempts = u.LoginAttempts
	stored.LockUntil = u.LockUntil
	stored.LastLogin = u.LastLogin
	f.byID[u.ID] = stored
	f.saves++
	return nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	f.byID[id] = u
	return nil
}

func (f *fakeUsersRepo) SetAdmin(_ context.Context, id string, isAdmin bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsAdmin = isAdmin
	f.byID[id] = u
	return nil
}

func (f *fakeUsersRepo) delete(id string) {
	f.mu.Lock()
	delete(f.byID, id)
	f.mu.Unlock()
}

// --- revoked tokens ---

type revokedEntry struct {
	userID    string
	expiresAt time.Time
}

type fakeRevokedRepo struct {
	mu      sync.Mutex
	entries map[string]revokedEntry
	err     error
}

func newFakeRevokedRepo() *fakeRevokedRepo {
	return &fakeRevokedRepo{entries: map[string]revokedEntry{}}
}

func (f *fakeRevokedRepo) Insert(_ context.Context, token, userID string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[token]; !ok {
		f.entries[token] = revokedEntry{userID: userID, expiresAt: expiresAt}
	}
	return nil
}

func (f *fakeRevokedRepo) IsRevoked(_ context.Context, token string, now time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[token]
	return ok && e.expiresAt.After(now), nil
}

func (f *fakeRevokedRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, e := range f.entries {
		if !e.expiresAt.After(now) {
			delete(f.entries, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeRevokedRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// --- batch years ---

type fakeBatchYearsRepo struct {
	byID      map[string]models.BatchYear
	inUse     map[string]bool
	err       error
	deleteErr error
}

func newFakeBatchYearsRepo() *fakeBatchYearsRepo {
	return &fakeBatchYearsRepo{byID: map[string]models.BatchYear{}, inUse: map[string]bool{}}
}

func (f *fakeBatchYearsRepo) add(year int) *models.BatchYear {
	b := models.BatchYear{ID: uuid.NewString(), Year: year}
	f.byID[b.ID] = b
	return &b
}

func (f *fakeBatchYearsRepo) List(context.Context) ([]*models.BatchYear, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.BatchYear{}
	for _, b := range f.byID {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (f *fakeBatchYearsRepo) GetByID(_ context.Context, id string) (*models.BatchYear, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}

func (f *fakeBatchYearsRepo) Create(_ context.Context, year int) (*models.BatchYear, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, b := range f.byID {
		if b.Year == year {
			return nil, common.ErrorAlreadyExists
		}
	}
	return f.add(year), nil
}

func (f *fakeBatchYearsRepo) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

// --- alumni ---

type fakeAlumniRepo struct {
	years     *fakeBatchYearsRepo
	byID      map[string]models.Alumna
	createErr error
	updateErr error
	searchErr error
	lastQuery models.AlumnaFilter
}

func newFakeAlumniRepo(years *fakeBatchYearsRepo) *fakeAlumniRepo {
	return &fakeAlumniRepo{years: years, byID: map[string]models.Alumna{}}
}

func (f *fakeAlumniRepo) Create(_ context.Context, a *models.Alumna) (*models.Alumna, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	f.byID[a.ID] = *a
	return a, nil
}

func (f *fakeAlumniRepo) Update(_ context.Context, a *models.Alumna) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[a.ID]; !ok {
		return common.ErrorNotFound
	}
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeAlumniRepo) UpdateCurrentPicture(_ context.Context, id, key string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.CurrentPicture = key
	f.byID[id] = a
	return nil
}

func (f *fakeAlumniRepo) GetByID(_ context.Context, id string) (*models.Alumna, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	a.BatchYear = f.years.byID[a.BatchYearID].Year
	return &a, nil
}

func (f *fakeAlumniRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAlumniRepo) Search(_ context.Context, q models.AlumnaFilter) ([]*models.Alumna, error) {
	f.lastQuery = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := []*models.Alumna{}
	for _, a := range f.byID {
		a := a
		a.BatchYear = f.years.byID[a.BatchYearID].Year
		full := strings.ToLower(a.FirstName + " " + a.LastName)
		switch {
		case q.Name != "" && !strings.Contains(full, strings.ToLower(q.Name)):
			continue
		case q.BatchYearID != "" && a.BatchYearID != q.BatchYearID:
			continue
		case q.YearFrom != 0 && a.BatchYear < q.YearFrom:
			continue
		case q.YearTo != 0 && a.BatchYear > q.YearTo:
			continue
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BatchYear != out[j].BatchYear {
			return out[i].BatchYear > out[j].BatchYear
		}
		return out[i].LastName < out[j].LastName
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// --- events ---

type fakeEventsRepo struct {
	users     *fakeUsersRepo
	byID      map[string]models.Event
	lastQuery models.EventFilter
	err       error
}

func newFakeEventsRepo(users *fakeUsersRepo) *fakeEventsRepo {
	return &fakeEventsRepo{users: users, byID: map[string]models.Event{}}
}

func (f *fakeEventsRepo) Create(_ context.Context, e *models.Event) (*models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	f.byID[e.ID] = *e
	return e, nil
}

func (f *fakeEventsRepo) Update(_ context.Context, e *models.Event) error {
	if _, ok := f.byID[e.ID]; !ok {
		return common.ErrorNotFound
	}
	f.byID[e.ID] = *e
	return nil
}

func (f *fakeEventsRepo) GetByID(_ context.Context, id string) (*models.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if u, err := f.users.GetByID(context.Background(), e.CreatedBy); err == nil {
		e.CreatedByUsername = u.Username
	}
	return &e, nil
}

func (f *fakeEventsRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEventsRepo) List(context.Context) ([]*models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Event{}
	for _, e := range f.byID {
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (f *fakeEventsRepo) Search(ctx context.Context, q models.EventFilter) ([]*models.Event, error) {
	f.lastQuery = q
	return f.List(ctx)
}

// --- manager ---

type fakeRepoManager struct {
	users   *fakeUsersRepo
	revoked *fakeRevokedRepo
	years   *fakeBatchYearsRepo
	alumni  *fakeAlumniRepo
	events  *fakeEventsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	u := newFakeUsersRepo()
	y := newFakeBatchYearsRepo()
	return &fakeRepoManager{
		users:   u,
		revoked: newFakeRevokedRepo(),
		years:   y,
		alumni:  newFakeAlumniRepo(y),
		events:  newFakeEventsRepo(u),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) RevokedTokens(dbx.DBTX) revokedtokens.Repository { return m.revoked }
func (m *fakeRepoManager) BatchYears(dbx.DBTX) batchyears.Repository       { return m.years }
func (m *fakeRepoManager) Alumni(dbx.DBTX) alumni.Repository               { return m.alumni }
func (m *fakeRepoManager) Events(dbx.DBTX) events.Repository               { return m.events }

// --- object store ---

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[key] = buf.Bytes()
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) URL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return "https://cdn.test/" + key, nil
}
