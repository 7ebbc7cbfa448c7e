package site

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/simp-lee/sitesapi/internal/domain"
)

// setupMockPostgres returns a GORM handle speaking the PostgreSQL dialect
// over a sqlmock connection.
func setupMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func siteColumns() []string {
	return []string{"site_id", "site_name", "site_url", "site_x", "site_y"}
}

func TestSiteRepository_Postgres_ListWithFilter(t *testing.T) {
	db, mock := setupMockPostgres(t)
	repo := NewSiteRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "sites" WHERE LOWER\(site_name\) LIKE \$1 ESCAPE '\\'`).
		WithArgs(`%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM "sites" WHERE LOWER\(site_name\) LIKE \$1 ESCAPE '\\' ORDER BY "site_id" LIMIT`).
		WillReturnRows(sqlmock.NewRows(siteColumns()).
			AddRow(3, "50% Off", "https://c.example", 1.5, 2.5))

	window, err := repo.List(context.Background(), domain.SiteQuery{Page: 2, Size: 2, Filter: domain.NameContains("50%")})
	require.NoError(t, err)

	assert.EqualValues(t, 3, window.TotalCount)
	require.Len(t, window.Items, 1)
	assert.Equal(t, domain.Site{SiteID: 3, SiteName: "50% Off", SiteURL: "https://c.example", SiteX: 1.5, SiteY: 2.5}, window.Items[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteRepository_Postgres_ListWithoutFilter(t *testing.T) {
	db, mock := setupMockPostgres(t)
	repo := NewSiteRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "sites"$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "sites" ORDER BY "site_id" LIMIT`).
		WillReturnRows(sqlmock.NewRows(siteColumns()).
			AddRow(1, "Alpha", "https://a.example", 0.0, 0.0))

	window, err := repo.List(context.Background(), domain.SiteQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, window.TotalCount)
	assert.Len(t, window.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteRepository_Postgres_SkipsWindowQuery(t *testing.T) {
	tests := []struct {
		name  string
		count int
		page  int
	}{
		{"no matches", 0, 1},
		{"beyond last page", 25, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockPostgres(t)
			repo := NewSiteRepository(db)

			mock.ExpectQuery(`SELECT count\(\*\) FROM "sites"`).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

			window, err := repo.List(context.Background(), domain.SiteQuery{Page: tt.page, Size: 10})
			require.NoError(t, err)
			assert.EqualValues(t, tt.count, window.TotalCount)
			assert.NotNil(t, window.Items)
			assert.Empty(t, window.Items)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSiteRepository_Postgres_CountError(t *testing.T) {
	db, mock := setupMockPostgres(t)
	repo := NewSiteRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "sites"`).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.List(context.Background(), domain.SiteQuery{Page: 1, Size: 10})
	require.Error(t, err)
	assert.True(t, domain.IsInternal(err), "expected internal error, got %v", err)
	assert.Equal(t, 500, domain.HTTPStatusCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteRepository_Postgres_SaveAllReplace(t *testing.T) {
	db, mock := setupMockPostgres(t)
	repo := NewSiteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "sites" .* ON CONFLICT \("site_id"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.SaveAll(context.Background(), []domain.Site{
		{SiteID: 1, SiteName: "Alpha", SiteURL: "https://a.example"},
		{SiteID: 2, SiteName: "Beta", SiteURL: "https://b.example"},
	}, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteRepository_Postgres_SaveAllDuplicate(t *testing.T) {
	db, mock := setupMockPostgres(t)
	repo := NewSiteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "sites"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "sites_pkey" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.SaveAll(context.Background(), []domain.Site{
		{SiteID: 1, SiteName: "Alpha", SiteURL: "https://a.example"},
	}, false)
	assert.True(t, domain.IsAlreadyExists(err), "expected ErrAlreadyExists, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
