package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/students"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStudentRepository creates a GormStudentRepository with a mocked SQL connection
func newMockStudentRepository(t *testing.T) (*GormStudentRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStudentRepository(gormDB), mock, mockDB
}

func studentRows(id uuid.UUID, admissionNumber string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version",
		"admission_number", "first_name", "last_name", "class_name", "stream",
		"guardian_name", "guardian_phone", "guardian_email", "status", "enrolled_at",
	}).AddRow(
		id, now, now, 1,
		admissionNumber, "Achieng", "Odhiambo", "Form 2B", "East",
		"Mary Odhiambo", "+254712345678", "mary@example.com", "active", now,
	)
}

func TestGormStudentRepository_FindByID(t *testing.T) {
	t.Run("finds existing student", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "students" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(studentID, 1).
			WillReturnRows(studentRows(studentID, "ADM-2025-001"))

		student, err := repo.FindByID(context.Background(), studentID)

		assert.NoError(t, err)
		require.NotNil(t, student)
		assert.Equal(t, studentID, student.ID)
		assert.Equal(t, "ADM-2025-001", student.AdmissionNumber)
		assert.Equal(t, students.StudentStatusActive, student.Status)
		assert.Equal(t, 1, student.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing student", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "students" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(studentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		student, err := repo.FindByID(context.Background(), studentID)

		assert.Error(t, err)
		assert.Nil(t, student)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStudentRepository_FindByAdmissionNumber(t *testing.T) {
	t.Run("normalizes admission number before querying", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "students" WHERE admission_number = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("ADM-2025-001", 1).
			WillReturnRows(studentRows(studentID, "ADM-2025-001"))

		student, err := repo.FindByAdmissionNumber(context.Background(), "  adm-2025-001 ")

		assert.NoError(t, err)
		require.NotNil(t, student)
		assert.Equal(t, "ADM-2025-001", student.AdmissionNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStudentRepository_ExistsByAdmissionNumber(t *testing.T) {
	t.Run("reports taken number", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "students" WHERE admission_number = \$1`).
			WithArgs("ADM-2025-001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByAdmissionNumber(context.Background(), "adm-2025-001")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports free number", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "students" WHERE admission_number = \$1`).
			WithArgs("ADM-2025-999").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByAdmissionNumber(context.Background(), "ADM-2025-999")

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStudentRepository_FindIDsByClass(t *testing.T) {
	t.Run("plucks active student ids", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		first := uuid.New()
		second := uuid.New()

		mock.ExpectQuery(`SELECT "id" FROM "students" WHERE class_name = \$1 AND status = \$2`).
			WithArgs("Form 2B", "active").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(first).AddRow(second))

		ids, err := repo.FindIDsByClass(context.Background(), "Form 2B")

		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first, second}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStudentRepository_SaveWithLock(t *testing.T) {
	newVersionedStudent := func(t *testing.T) *students.Student {
		t.Helper()
		student, err := students.NewStudent("ADM-2025-001", "Achieng", "Odhiambo", "Form 2B")
		require.NoError(t, err)
		student.Version = 2
		return student
	}

	t.Run("updates with version check", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		student := newVersionedStudent(t)

		mock.ExpectExec(`UPDATE "students" SET .* WHERE \(id = \$\d+ AND version = \$\d+\) AND "id" = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), student)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns optimistic lock error when no rows match", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		student := newVersionedStudent(t)

		mock.ExpectExec(`UPDATE "students" SET .* WHERE \(id = \$\d+ AND version = \$\d+\) AND "id" = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), student)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStudentRepository_FindAll(t *testing.T) {
	t.Run("applies class filter and pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		className := "Form 2B"
		studentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "students" WHERE class_name = \$1 ORDER BY .* LIMIT .*`).
			WillReturnRows(studentRows(studentID, "ADM-2025-001"))

		result, err := repo.FindAll(context.Background(), students.StudentFilter{
			Filter:    shared.Filter{Page: 1, PageSize: 20},
			ClassName: &className,
		})

		assert.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, "ADM-2025-001", result[0].AdmissionNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
