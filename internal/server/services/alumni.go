package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/alumnae/internal/server/storage"
	"github.com/dmitrijs2005/alumnae/internal/server/validation"
)

const (
	// SearchLimit caps name and advanced search results.
	SearchLimit = 50
	// MinSearchLength is the shortest accepted name search term.
	MinSearchLength = 2

	picturePrefix = "alumni"
)

var allowedImages = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// AlumnaInput carries the editable fields of an alumna record.
type AlumnaInput struct {
	Prefix        string `json:"prefix" form:"prefix" validate:"omitempty,oneof=Ms. Mrs. Mr. Dr. Prof. Atty. Eng. Sr."`
	FirstName     string `json:"firstName" form:"firstName" validate:"required,max=100"`
	MiddleName    string `json:"middleName" form:"middleName" validate:"max=100"`
	LastName      string `json:"lastName" form:"lastName" validate:"required,max=100"`
	Email         string `json:"email" form:"email" validate:"omitempty,email,max=255"`
	ContactNumber string `json:"contactNumber" form:"contactNumber" validate:"max=32"`
	BatchYearID   string `json:"batchYearId" form:"batchYearId" validate:"required,uuid"`
}

// AlumnaPatch carries the fields of an update request. Nil fields keep
// their stored value.
type AlumnaPatch struct {
	Prefix        *string `json:"prefix" form:"prefix"`
	FirstName     *string `json:"firstName" form:"firstName"`
	MiddleName    *string `json:"middleName" form:"middleName"`
	LastName      *string `json:"lastName" form:"lastName"`
	Email         *string `json:"email" form:"email"`
	ContactNumber *string `json:"contactNumber" form:"contactNumber"`
	BatchYearID   *string `json:"batchYearId" form:"batchYearId"`
}

// merge returns in with every non-nil field of p applied.
func (p AlumnaPatch) merge(in AlumnaInput) AlumnaInput {
	for _, f := range []struct {
		src *string
		dst *string
	}{
		{p.Prefix, &in.Prefix},
		{p.FirstName, &in.FirstName},
		{p.MiddleName, &in.MiddleName},
		{p.LastName, &in.LastName},
		{p.Email, &in.Email},
		{p.ContactNumber, &in.ContactNumber},
		{p.BatchYearID, &in.BatchYearID},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return in
}

// Upload is a picture received with a request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AlumnaDetails is an alumna together with fetchable picture URLs.
type AlumnaDetails struct {
	models.Alumna
	StudentPictureURL string
	CurrentPictureURL string
}

// AlumniGroup is the alumni of one batch year.
type AlumniGroup struct {
	BatchYearID string
	BatchYear   int
	Alumni      []*AlumnaDetails
}

type AlumniService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	store         storage.ObjectStore
	validator     *validation.Validator
	maxUploadSize int64
	logger        logging.Logger
}

func NewAlumniService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore,
	v *validation.Validator, maxUploadSize int64, logger logging.Logger) *AlumniService {
	return &AlumniService{
		db:            db,
		repomanager:   m,
		store:         store,
		validator:     v,
		maxUploadSize: maxUploadSize,
		logger:        logger.With("module", "alumni"),
	}
}

// List returns all alumni ordered by batch year (newest first) and last name.
func (s *AlumniService) List(ctx context.Context) ([]*AlumnaDetails, error) {
	return s.search(ctx, models.AlumnaFilter{})
}

// Grouped returns alumni grouped by batch year, optionally narrowed by name.
func (s *AlumniService) Grouped(ctx context.Context, name string) ([]*AlumniGroup, error) {
	list, err := s.search(ctx, models.AlumnaFilter{Name: strings.TrimSpace(name)})
	if err != nil {
		return nil, err
	}

	groups := []*AlumniGroup{}
	for _, a := range list {
		if n := len(groups); n == 0 || groups[n-1].BatchYearID != a.BatchYearID {
			groups = append(groups, &AlumniGroup{BatchYearID: a.BatchYearID, BatchYear: a.BatchYear})
		}
		g := groups[len(groups)-1]
		g.Alumni = append(g.Alumni, a)
	}
	return groups, nil
}

// SearchByName matches first, middle and last names and their combinations.
func (s *AlumniService) SearchByName(ctx context.Context, name string) ([]*AlumnaDetails, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < MinSearchLength {
		return nil, fmt.Errorf("%w: search term must be at least %d characters", common.ErrValidation, MinSearchLength)
	}
	return s.search(ctx, models.AlumnaFilter{Name: name, Limit: SearchLimit})
}

// AdvancedSearch combines every filter field. Results are capped at SearchLimit.
func (s *AlumniService) AdvancedSearch(ctx context.Context, f models.AlumnaFilter) ([]*AlumnaDetails, error) {
	if f.YearFrom != 0 && f.YearTo != 0 && f.YearFrom > f.YearTo {
		return nil, fmt.Errorf("%w: yearFrom cannot be after yearTo", common.ErrValidation)
	}
	f.Limit = SearchLimit
	f.BatchYearID = ""
	return s.search(ctx, f)
}

// ByYearRange returns alumni whose batch year lies in [from, to].
func (s *AlumniService) ByYearRange(ctx context.Context, from, to int) ([]*AlumnaDetails, error) {
	if from == 0 || to == 0 {
		return nil, fmt.Errorf("%w: both from and to years are required", common.ErrValidation)
	}
	if from > to {
		return nil, fmt.Errorf("%w: from year cannot be after to year", common.ErrValidation)
	}
	return s.search(ctx, models.AlumnaFilter{YearFrom: from, YearTo: to})
}

func (s *AlumniService) ByYear(ctx context.Context, year int) ([]*AlumnaDetails, error) {
	if year == 0 {
		return nil, fmt.Errorf("%w: year is required", common.ErrValidation)
	}
	return s.search(ctx, models.AlumnaFilter{YearFrom: year, YearTo: year})
}

func (s *AlumniService) ByBatch(ctx context.Context, batchYearID string) ([]*AlumnaDetails, error) {
	if !validID(batchYearID) {
		return nil, fmt.Errorf("%w: invalid batch year id", common.ErrValidation)
	}
	return s.search(ctx, models.AlumnaFilter{BatchYearID: batchYearID})
}

func (s *AlumniService) Get(ctx context.Context, id string) (*AlumnaDetails, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, a), nil
}

// Create stores a new alumna and her pictures. Uploaded objects are removed
// again if the record cannot be saved.
func (s *AlumniService) Create(ctx context.Context, in AlumnaInput, student, current *Upload) (*AlumnaDetails, error) {
	if err := s.checkInput(ctx, &in); err != nil {
		return nil, err
	}
	if err := s.checkUploads(student, current); err != nil {
		return nil, err
	}

	a := &models.Alumna{}
	applyInput(a, in)

	var uploaded []string
	for _, u := range []struct {
		up  *Upload
		dst *string
	}{{student, &a.StudentPicture}, {current, &a.CurrentPicture}} {
		if u.up == nil {
			continue
		}
		key, err := s.put(ctx, u.up)
		if err != nil {
			s.cleanup(ctx, uploaded...)
			return nil, err
		}
		uploaded = append(uploaded, key)
		*u.dst = key
	}

	created, err := s.repomanager.Alumni(s.db).Create(ctx, a)
	if err != nil {
		s.cleanup(ctx, uploaded...)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: an alumna with this email already exists", common.ErrorAlreadyExists)
		}
		s.logger.Error(ctx, "create alumna", "error", err)
		return nil, common.ErrorInternal
	}

	return s.Get(ctx, created.ID)
}

// Update applies the fields present in p to alumna id and validates the
// merged record. A new picture replaces the old object, which is deleted
// once the record is saved.
func (s *AlumniService) Update(ctx context.Context, id string, p AlumnaPatch, student, current *Upload) (*AlumnaDetails, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	in := p.merge(inputOf(a))
	if err := s.checkInput(ctx, &in); err != nil {
		return nil, err
	}
	if err := s.checkUploads(student, current); err != nil {
		return nil, err
	}

	applyInput(a, in)

	var uploaded, replaced []string
	for _, u := range []struct {
		up  *Upload
		dst *string
	}{{student, &a.StudentPicture}, {current, &a.CurrentPicture}} {
		if u.up == nil {
			continue
		}
		key, err := s.put(ctx, u.up)
		if err != nil {
			s.cleanup(ctx, uploaded...)
			return nil, err
		}
		uploaded = append(uploaded, key)
		if *u.dst != "" {
			replaced = append(replaced, *u.dst)
		}
		*u.dst = key
	}

	if err := s.repomanager.Alumni(s.db).Update(ctx, a); err != nil {
		s.cleanup(ctx, uploaded...)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.ErrorNotFound
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, fmt.Errorf("%w: an alumna with this email already exists", common.ErrorAlreadyExists)
		}
		s.logger.Error(ctx, "update alumna", "id", id, "error", err)
		return nil, common.ErrorInternal
	}

	s.cleanup(ctx, replaced...)
	return s.Get(ctx, id)
}

// UpdateCurrentPicture swaps the current picture of alumna id.
func (s *AlumniService) UpdateCurrentPicture(ctx context.Context, id string, current *Upload) (*AlumnaDetails, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: no picture uploaded", common.ErrValidation)
	}
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkUploads(current); err != nil {
		return nil, err
	}

	key, err := s.put(ctx, current)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Alumni(s.db).UpdateCurrentPicture(ctx, id, key); err != nil {
		s.cleanup(ctx, key)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "update current picture", "id", id, "error", err)
		return nil, common.ErrorInternal
	}

	if a.CurrentPicture != "" {
		s.cleanup(ctx, a.CurrentPicture)
	}
	return s.Get(ctx, id)
}

// Delete removes alumna id and her pictures.
func (s *AlumniService) Delete(ctx context.Context, id string) error {
	a, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repomanager.Alumni(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "delete alumna", "id", id, "error", err)
		return common.ErrorInternal
	}

	s.cleanup(ctx, a.StudentPicture, a.CurrentPicture)
	return nil
}

func (s *AlumniService) get(ctx context.Context, id string) (*models.Alumna, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	a, err := s.repomanager.Alumni(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "get alumna", "id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return a, nil
}

func (s *AlumniService) search(ctx context.Context, f models.AlumnaFilter) ([]*AlumnaDetails, error) {
	list, err := s.repomanager.Alumni(s.db).Search(ctx, f)
	if err != nil {
		s.logger.Error(ctx, "search alumni", "error", err)
		return nil, common.ErrorInternal
	}

	result := make([]*AlumnaDetails, 0, len(list))
	for _, a := range list {
		result = append(result, s.details(ctx, a))
	}
	return result, nil
}

// details attaches picture URLs. A URL that cannot be produced is left
// empty rather than failing the whole listing.
func (s *AlumniService) details(ctx context.Context, a *models.Alumna) *AlumnaDetails {
	d := &AlumnaDetails{Alumna: *a}
	var err error
	if d.StudentPictureURL, err = s.store.URL(ctx, a.StudentPicture); err != nil {
		s.logger.Warn(ctx, "picture url", "key", a.StudentPicture, "error", err)
	}
	if d.CurrentPictureURL, err = s.store.URL(ctx, a.CurrentPicture); err != nil {
		s.logger.Warn(ctx, "picture url", "key", a.CurrentPicture, "error", err)
	}
	return d
}

func (s *AlumniService) checkInput(ctx context.Context, in *AlumnaInput) error {
	in.Prefix = strings.TrimSpace(in.Prefix)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	if in.Prefix == "" {
		in.Prefix = models.DefaultPrefix
	}

	if err := s.validator.Struct(in); err != nil {
		return err
	}

	if _, err := s.repomanager.BatchYears(s.db).GetByID(ctx, in.BatchYearID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: batch year not found", common.ErrValidation)
		}
		s.logger.Error(ctx, "get batch year", "error", err)
		return common.ErrorInternal
	}
	return nil
}

func (s *AlumniService) checkUploads(uploads ...*Upload) error {
	for _, u := range uploads {
		if u == nil {
			continue
		}
		ext := strings.ToLower(filepath.Ext(u.Filename))
		want, ok := allowedImages[ext]
		ct := strings.ToLower(strings.TrimSpace(strings.SplitN(u.ContentType, ";", 2)[0]))
		if !ok || ct != want {
			return fmt.Errorf("%w: only image files (jpeg, jpg, png, gif) are allowed", common.ErrValidation)
		}
		if s.maxUploadSize > 0 && u.Size > s.maxUploadSize {
			return fmt.Errorf("%w: file too large, maximum is %d bytes", common.ErrValidation, s.maxUploadSize)
		}
	}
	return nil
}

func (s *AlumniService) put(ctx context.Context, u *Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	key := storage.NewKey(picturePrefix, ext)
	if err := s.store.Put(ctx, key, u.Body, u.Size, allowedImages[ext]); err != nil {
		s.logger.Error(ctx, "upload picture", "key", key, "error", err)
		return "", common.ErrorInternal
	}
	return key, nil
}

func (s *AlumniService) cleanup(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.store.Delete(ctx, k); err != nil {
			s.logger.Warn(ctx, "delete picture", "key", k, "error", err)
		}
	}
}

func inputOf(a *models.Alumna) AlumnaInput {
	return AlumnaInput{
		Prefix:        a.Prefix,
		FirstName:     a.FirstName,
		MiddleName:    a.MiddleName,
		LastName:      a.LastName,
		Email:         a.Email,
		ContactNumber: a.ContactNumber,
		BatchYearID:   a.BatchYearID,
	}
}

func applyInput(a *models.Alumna, in AlumnaInput) {
	a.Prefix = in.Prefix
	a.FirstName = in.FirstName
	a.MiddleName = in.MiddleName
	a.LastName = in.LastName
	a.Email = in.Email
	a.ContactNumber = in.ContactNumber
	a.BatchYearID = in.BatchYearID
}
