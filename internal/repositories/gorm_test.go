package repositories

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// sqlLike matches a statement containing each fragment in order.
func sqlLike(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, f := range fragments {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(quoted, ".*")
}

func TestGormReviewRepository_AddFavorite(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(sqlLike(`UPDATE "reviews" SET "is_favorite_by"=array_append(is_favorite_by, $1)`, `id = `, `array_position(is_favorite_by, `, `IS NULL`)).
		WithArgs("a@x.com", sqlmock.AnyArg(), id.String(), "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlLike(`UPDATE "users" SET "favorites"=array_append(favorites, $1)`, `email = `, `array_position(favorites, `, `IS NULL`)).
		WithArgs(id.String(), sqlmock.AnyArg(), "a@x.com", id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AddFavorite(context.Background(), id, "a@x.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReviewRepository_AddFavoriteRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(sqlLike(`UPDATE "reviews" SET "is_favorite_by"=array_append`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlLike(`UPDATE "users" SET "favorites"=array_append`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.AddFavorite(context.Background(), id, "a@x.com")
	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReviewRepository_RemoveFavorite(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(sqlLike(`UPDATE "reviews" SET "is_favorite_by"=array_remove(is_favorite_by, $1)`, `id = `)).
		WithArgs("a@x.com", sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlLike(`UPDATE "users" SET "favorites"=array_remove(favorites, $1)`, `email = `)).
		WithArgs(id.String(), sqlmock.AnyArg(), "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RemoveFavorite(context.Background(), id, "a@x.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReviewRepository_Delete(t *testing.T) {
	t.Run("strips the id from every user's favorites", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewReviewRepository(db)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(sqlLike(`DELETE FROM "reviews" WHERE id = $1`)).
			WithArgs(id.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(sqlLike(`UPDATE "users" SET "favorites"=array_remove(favorites, $1)`, `array_position(favorites, `, `IS NOT NULL`)).
			WithArgs(id.String(), sqlmock.AnyArg(), id.String()).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		require.NoError(t, repo.Delete(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing review rolls back", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewReviewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(sqlLike(`DELETE FROM "reviews" WHERE id = $1`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReviewRepository_ListEscapesSearch(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "user_email", "food_name", "status", "is_favorite_by"}).
		AddRow(id.String(), "b@x.com", "50%_off Ramen", models.StatusApproved, "{a@x.com}")
	mock.ExpectQuery(sqlLike(`SELECT * FROM "reviews" WHERE status = $1 AND food_name ILIKE $2 ORDER BY created_at DESC`)).
		WithArgs(models.StatusApproved, `%50\%\_off%`).
		WillReturnRows(rows)

	reviews, err := repo.List(context.Background(), ReviewFilter{Status: models.StatusApproved, FoodNameContains: "50%_off"})
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, id, reviews[0].ID)
	assert.Equal(t, []string{"a@x.com"}, []string(reviews[0].IsFavoriteBy))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReviewRepository_UpdateFieldsTouchesOnlyNamedColumns(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(sqlLike(`UPDATE "reviews" SET "food_name"=$1,"updated_at"=$2 WHERE id = $3`)).
		WithArgs("Pho", sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateFields(context.Background(), id, map[string]interface{}{ColumnFoodName: "Pho"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_DeleteWithReviews(t *testing.T) {
	t.Run("removes reviews and favorite links in one transaction", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)
		user := &models.User{ID: uuid.New(), Email: "a@x.com"}
		r1, r2 := uuid.NewString(), uuid.NewString()

		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike(`SELECT "id" FROM "reviews" WHERE user_email = $1`)).
			WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(r1).AddRow(r2))
		mock.ExpectExec(sqlLike(`DELETE FROM "reviews" WHERE user_email = $1`)).
			WithArgs("a@x.com").
			WillReturnResult(sqlmock.NewResult(0, 2))
		for _, id := range []string{r1, r2} {
			mock.ExpectExec(sqlLike(`UPDATE "users" SET "favorites"=array_remove(favorites, $1)`, `array_position(favorites, `, `IS NOT NULL`)).
				WithArgs(id, sqlmock.AnyArg(), id).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}
		mock.ExpectExec(sqlLike(`UPDATE "reviews" SET "is_favorite_by"=array_remove(is_favorite_by, $1)`, `array_position(is_favorite_by, `, `IS NOT NULL`)).
			WithArgs("a@x.com", sqlmock.AnyArg(), "a@x.com").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(sqlLike(`DELETE FROM "users" WHERE id = $1`)).
			WithArgs(user.ID.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		deleted, err := repo.DeleteWithReviews(context.Background(), user)
		require.NoError(t, err)
		assert.EqualValues(t, 2, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user already gone rolls back", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)
		user := &models.User{ID: uuid.New(), Email: "a@x.com"}

		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike(`SELECT "id" FROM "reviews"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(sqlLike(`DELETE FROM "reviews"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(sqlLike(`UPDATE "reviews" SET "is_favorite_by"=array_remove`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(sqlLike(`DELETE FROM "users"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		deleted, err := repo.DeleteWithReviews(context.Background(), user)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUserRepository_Count(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(sqlLike(`SELECT count(*) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
