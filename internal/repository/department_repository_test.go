package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDepartmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDepartmentRepositoryListWithCourses(t *testing.T) {
	db, mock, cleanup := newDepartmentRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, created_at FROM departments ORDER BY code ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "created_at"}).
			AddRow("cse", "Computer Science", "CSE", now).
			AddRow("ece", "Electronics", "ECE", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, dept_id, type, hours_per_week, created_at FROM courses ORDER BY dept_id, created_at ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "dept_id", "type", "hours_per_week", "created_at"}).
			AddRow("cs101", "Programming", "CS101", "cse", "Theory", 2, now).
			AddRow("cs101l", "Programming Lab", "CS101L", "cse", "Practical", 1, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, teacher_id, created_at FROM allocations WHERE course_id = ANY($1) ORDER BY created_at ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "teacher_id", "created_at"}).
			AddRow("a1", "cs101", "smith", now).
			AddRow("a2", "cs101", "jones", now.Add(time.Minute)))

	result, err := repo.ListWithCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)

	cse := result[0]
	require.Len(t, cse.Courses, 2)
	require.Len(t, cse.Courses[0].Allocations, 2)
	assert.Equal(t, "smith", cse.Courses[0].Allocations[0].TeacherID)
	assert.Empty(t, cse.Courses[1].Allocations)
	assert.Empty(t, result[1].Courses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryListWithCoursesEmpty(t *testing.T) {
	db, mock, cleanup := newDepartmentRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectQuery("SELECT id, name, code, created_at FROM departments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "created_at"}))

	result, err := repo.ListWithCourses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newDepartmentRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM departments WHERE LOWER(code) = LOWER($1) OR LOWER(name) = LOWER($2) LIMIT 1")).
		WithArgs("CSE", "Computer Science").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByCode(context.Background(), "CSE", "Computer Science")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
