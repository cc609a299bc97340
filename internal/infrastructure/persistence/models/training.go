package models

import (
	"time"

	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/coursebill/backend/internal/domain/training"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CourseModel is the persistence model for the Course aggregate root.
type CourseModel struct {
	AggregateModel
	CourseNumber    string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrganizationID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	CourseType      string                `gorm:"type:varchar(100);not null;index"`
	Title           string                `gorm:"type:varchar(200);not null"`
	Status          training.CourseStatus `gorm:"type:varchar(20);not null;default:'SCHEDULED';index"`
	CompletedAt     *time.Time
	ReadyForBilling bool `gorm:"not null;default:false"`
	Invoiced        bool `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (CourseModel) TableName() string {
	return "courses"
}

// ToDomain converts the persistence model to a domain Course entity.
func (m *CourseModel) ToDomain() *training.Course {
	return &training.Course{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CourseNumber:      m.CourseNumber,
		OrganizationID:    m.OrganizationID,
		CourseType:        m.CourseType,
		Title:             m.Title,
		Status:            m.Status,
		CompletedAt:       m.CompletedAt,
		ReadyForBilling:   m.ReadyForBilling,
		Invoiced:          m.Invoiced,
	}
}

// FromDomain populates the persistence model from a domain Course entity.
func (m *CourseModel) FromDomain(c *training.Course) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.CourseNumber = c.CourseNumber
	m.OrganizationID = c.OrganizationID
	m.CourseType = c.CourseType
	m.Title = c.Title
	m.Status = c.Status
	m.CompletedAt = c.CompletedAt
	m.ReadyForBilling = c.ReadyForBilling
	m.Invoiced = c.Invoiced
}

// CourseModelFromDomain creates a new persistence model from a domain Course.
func CourseModelFromDomain(c *training.Course) *CourseModel {
	m := &CourseModel{}
	m.FromDomain(c)
	return m
}

// EnrollmentModel records one student's enrollment on a course. The
// billing core only reads the attended flag when counting billable
// heads.
type EnrollmentModel struct {
	BaseModel
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index"`
	StudentName string    `gorm:"type:varchar(200);not null"`
	Attended    bool      `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (EnrollmentModel) TableName() string {
	return "enrollments"
}

// OrganizationModel is the persistence model for the Organization aggregate root.
type OrganizationModel struct {
	AggregateModel
	Name         string `gorm:"type:varchar(200);not null"`
	ContactName  string `gorm:"type:varchar(200)"`
	ContactEmail string `gorm:"type:varchar(200)"`
	Phone        string `gorm:"type:varchar(50)"`
	Active       bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the persistence model to a domain Organization entity.
func (m *OrganizationModel) ToDomain() *training.Organization {
	return &training.Organization{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		ContactName:       m.ContactName,
		ContactEmail:      m.ContactEmail,
		Phone:             m.Phone,
		Active:            m.Active,
	}
}

// PriceConfigModel is the persistence model for the PriceConfig aggregate root.
type PriceConfigModel struct {
	AggregateModel
	OrganizationID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_org_type"`
	CourseType      string          `gorm:"type:varchar(100);not null;index:idx_price_org_type"`
	PricePerStudent decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Active          bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (PriceConfigModel) TableName() string {
	return "price_configs"
}

// ToDomain converts the persistence model to a domain PriceConfig entity.
func (m *PriceConfigModel) ToDomain() *training.PriceConfig {
	return &training.PriceConfig{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrganizationID:    m.OrganizationID,
		CourseType:        m.CourseType,
		PricePerStudent:   valueobject.NewMoneyUSD(m.PricePerStudent),
		Active:            m.Active,
	}
}
