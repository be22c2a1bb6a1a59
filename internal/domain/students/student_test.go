package students

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStudent(t *testing.T) *Student {
	t.Helper()
	s, err := NewStudent("ADM-2026-001", "Wanjiku", "Kamau", "Form 1")
	require.NoError(t, err)
	return s
}

func TestNewStudent(t *testing.T) {
	tests := []struct {
		name            string
		admissionNumber string
		firstName       string
		lastName        string
		className       string
		wantErr         bool
	}{
		{"valid student", "ADM-2026-001", "Wanjiku", "Kamau", "Form 1", false},
		{"lowercase admission number normalized", "adm-2026-002", "Brian", "Odhiambo", "Form 2", false},
		{"empty admission number", "", "Wanjiku", "Kamau", "Form 1", true},
		{"admission number with spaces", "ADM 001", "Wanjiku", "Kamau", "Form 1", true},
		{"missing first name", "ADM-2026-003", "", "Kamau", "Form 1", true},
		{"missing last name", "ADM-2026-004", "Wanjiku", "  ", "Form 1", true},
		{"missing class", "ADM-2026-005", "Wanjiku", "Kamau", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStudent(tt.admissionNumber, tt.firstName, tt.lastName, tt.className)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StudentStatusActive, s.Status)
			assert.True(t, s.IsActive())
			assert.Len(t, s.GetDomainEvents(), 1)
		})
	}
}

func TestStudentNormalizesAdmissionNumber(t *testing.T) {
	s, err := NewStudent("adm-2026-010", "Brian", "Odhiambo", "Form 2")
	require.NoError(t, err)
	assert.Equal(t, "ADM-2026-010", s.AdmissionNumber)
}

func TestStudentFullName(t *testing.T) {
	s := createTestStudent(t)
	assert.Equal(t, "Wanjiku Kamau", s.FullName())
}

func TestStudentUpdateDetails(t *testing.T) {
	s := createTestStudent(t)

	err := s.UpdateDetails("Wanjiku", "Kamau", "Form 2", "East")
	require.NoError(t, err)
	assert.Equal(t, "Form 2", s.ClassName)
	assert.Equal(t, "East", s.Stream)
	assert.Equal(t, 2, s.GetVersion())

	assert.Error(t, s.UpdateDetails("", "Kamau", "Form 2", ""))
}

func TestStudentSetGuardian(t *testing.T) {
	t.Run("valid guardian", func(t *testing.T) {
		s := createTestStudent(t)
		err := s.SetGuardian("Mary Kamau", "+254700111222", "Mary.Kamau@example.com")
		require.NoError(t, err)
		assert.Equal(t, "mary.kamau@example.com", s.GuardianEmail)
	})

	t.Run("invalid email", func(t *testing.T) {
		s := createTestStudent(t)
		assert.Error(t, s.SetGuardian("Mary Kamau", "", "not-an-email"))
	})
}

func TestStudentChangeStatus(t *testing.T) {
	t.Run("valid transition", func(t *testing.T) {
		s := createTestStudent(t)
		require.NoError(t, s.ChangeStatus(StudentStatusGraduated))
		assert.Equal(t, StudentStatusGraduated, s.Status)
		assert.False(t, s.IsActive())
	})

	t.Run("same status rejected", func(t *testing.T) {
		s := createTestStudent(t)
		assert.Error(t, s.ChangeStatus(StudentStatusActive))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		s := createTestStudent(t)
		assert.Error(t, s.ChangeStatus(StudentStatus("expelled")))
	})
}
