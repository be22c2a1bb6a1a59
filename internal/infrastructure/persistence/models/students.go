package models

import (
	"time"

	"github.com/schoolfee/backend/internal/domain/students"
)

// StudentModel is the persistence model for the Student aggregate
type StudentModel struct {
	AggregateModel
	AdmissionNumber string                 `gorm:"type:varchar(30);not null;uniqueIndex"`
	FirstName       string                 `gorm:"type:varchar(100);not null"`
	LastName        string                 `gorm:"type:varchar(100);not null"`
	ClassName       string                 `gorm:"type:varchar(50);not null;index"`
	Stream          string                 `gorm:"type:varchar(50)"`
	GuardianName    string                 `gorm:"type:varchar(200)"`
	GuardianPhone   string                 `gorm:"type:varchar(20)"`
	GuardianEmail   string                 `gorm:"type:varchar(200)"`
	Status          students.StudentStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	EnrolledAt      time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "students"
}

// ToDomain converts the persistence model to a domain Student
func (m *StudentModel) ToDomain() *students.Student {
	s := &students.Student{
		AdmissionNumber: m.AdmissionNumber,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		ClassName:       m.ClassName,
		Stream:          m.Stream,
		GuardianName:    m.GuardianName,
		GuardianPhone:   m.GuardianPhone,
		GuardianEmail:   m.GuardianEmail,
		Status:          m.Status,
		EnrolledAt:      m.EnrolledAt,
	}
	m.PopulateAggregateRoot(&s.BaseAggregateRoot)
	return s
}

// StudentModelFromDomain converts a domain Student to its persistence model
func StudentModelFromDomain(s *students.Student) *StudentModel {
	m := &StudentModel{
		AdmissionNumber: s.AdmissionNumber,
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		ClassName:       s.ClassName,
		Stream:          s.Stream,
		GuardianName:    s.GuardianName,
		GuardianPhone:   s.GuardianPhone,
		GuardianEmail:   s.GuardianEmail,
		Status:          s.Status,
		EnrolledAt:      s.EnrolledAt,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}
