package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/auth"
)

func newBatchYearService(repos *fakeRepoManager) *BatchYearService {
	return NewBatchYearService(nil, repos, auth.NewManualClock(testNow), logging.Nop{})
}

func TestBatchYearService_Create(t *testing.T) {
	repos := newFakeRepoManager()
	svc := newBatchYearService(repos)
	ctx := context.Background()

	tests := []struct {
		name    string
		year    int
		wantErr error
	}{
		{"earliest", 1900, nil},
		{"latest", 2031, nil},
		{"too early", 1899, common.ErrValidation},
		{"too late", 2032, common.ErrValidation},
		{"duplicate", 1900, common.ErrorAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := svc.Create(ctx, tt.year)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.year, b.Year)
		})
	}
}

func TestBatchYearService_List(t *testing.T) {
	repos := newFakeRepoManager()
	svc := newBatchYearService(repos)
	repos.years.add(1999)
	repos.years.add(2010)
	repos.years.add(2004)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{2010, 2004, 1999}, []int{list[0].Year, list[1].Year, list[2].Year})

	repos.years.err = errBoom
	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestBatchYearService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		repos := newFakeRepoManager()
		svc := newBatchYearService(repos)
		b := repos.years.add(2001)

		require.NoError(t, svc.Delete(ctx, b.ID))
		assert.Empty(t, repos.years.byID)
	})

	t.Run("unknown and malformed ids", func(t *testing.T) {
		svc := newBatchYearService(newFakeRepoManager())
		assert.ErrorIs(t, svc.Delete(ctx, "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"), common.ErrorNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, "nope"), common.ErrorNotFound)
	})

	t.Run("still referenced", func(t *testing.T) {
		repos := newFakeRepoManager()
		svc := newBatchYearService(repos)
		b := repos.years.add(2001)
		repos.years.deleteErr = fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23503"})

		assert.ErrorIs(t, svc.Delete(ctx, b.ID), common.ErrValidation)
	})

	t.Run("store failure", func(t *testing.T) {
		repos := newFakeRepoManager()
		svc := newBatchYearService(repos)
		b := repos.years.add(2001)
		repos.years.deleteErr = errBoom

		assert.ErrorIs(t, svc.Delete(ctx, b.ID), common.ErrorInternal)
	})
}
