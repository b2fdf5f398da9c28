package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// User carries the identity and employment attributes of one staff member.
type User struct {
	UserID               uint      `gorm:"primaryKey;autoIncrement;column:user_id" json:"user_id"`
	EmployeeID           string    `gorm:"type:varchar(50);not null;unique;column:employee_id" json:"employee_id"`
	FullName             string    `gorm:"type:varchar(150);not null" json:"full_name"`
	RoleType             string    `gorm:"type:varchar(20);not null" json:"role_type"` // academic or administrative
	FacultyOrDepartment  string    `gorm:"type:varchar(100)" json:"faculty_or_department"`
	PositionTitle        string    `gorm:"type:varchar(100)" json:"position_title"`
	ContractType         string    `gorm:"type:varchar(50)" json:"contract_type"` // full-time, part-time, temporary
	HireDate             time.Time `gorm:"not null" json:"hire_date"`
	DateOfBirth          time.Time `json:"date_of_birth"`
	ServiceYears         int       `gorm:"default:0" json:"service_years"`
	SocialInsuranceYears int       `gorm:"default:0" json:"social_insurance_years"`
	ProbationPeriod      bool      `gorm:"default:false" json:"probation_period"`
	IsActive             bool      `gorm:"default:true" json:"is_active"`
	IsAdmin              bool      `gorm:"default:false" json:"is_admin"`
	Email                string    `gorm:"type:varchar(150);not null;unique" json:"email"`
	Password             string    `gorm:"type:varchar(255);not null" json:"-"`
}

func (User) TableName() string { return "users" }

type AcademicProfile struct {
	AcademicID                 uint    `gorm:"primaryKey;autoIncrement;column:academic_id" json:"academic_id"`
	UserID                     uint    `gorm:"index;column:user_id" json:"user_id"`
	PhdAwardedYear             int     `json:"phd_awarded_year"`
	LastPromotionYear          int     `json:"last_promotion_year"`
	PublicationsCount          int     `gorm:"default:0" json:"publications_count"`
	SingleAuthoredPublications int     `gorm:"default:0" json:"single_authored_publications"`
	HIndex                     int     `gorm:"default:0;column:h_index" json:"h_index"`
	SupervisedPhdStudents      int     `gorm:"default:0" json:"supervised_phd_students"`
	SupervisedMastersStudents  int     `gorm:"default:0" json:"supervised_masters_students"`
	ResearchFundingUSD         float64 `gorm:"type:numeric(12,2);default:0;column:research_funding_usd" json:"research_funding_usd"`
	WorkshopsOrganized         int     `gorm:"default:0" json:"workshops_organized"`
	AwardsCount                int     `gorm:"default:0" json:"awards_count"`
	PromotionEligibilityScore  float64 `gorm:"type:numeric(5,2)" json:"promotion_eligibility_score"`
	EligibleForPromotion       bool    `gorm:"default:false" json:"eligible_for_promotion"`
}

func (AcademicProfile) TableName() string { return "academic_profile" }

type LeaveBalance struct {
	LeaveID                 uint      `gorm:"primaryKey;autoIncrement;column:leave_id" json:"leave_id"`
	UserID                  uint      `gorm:"index;column:user_id" json:"user_id"`
	AnnualEntitlement       int       `gorm:"default:21" json:"annual_entitlement"`
	AnnualTaken             int       `gorm:"default:0" json:"annual_taken"`
	AccidentalEntitlement   int       `gorm:"default:6" json:"accidental_entitlement"`
	AccidentalTaken         int       `gorm:"default:0" json:"accidental_taken"`
	SickEntitlement         int       `gorm:"default:180" json:"sick_entitlement"`
	SickTaken               int       `gorm:"default:0" json:"sick_taken"`
	CompensationBalance     int       `gorm:"default:0" json:"compensation_balance"`
	UnpaidBalance           int       `gorm:"default:0" json:"unpaid_balance"`
	MaternityEntitlement    int       `gorm:"default:90" json:"maternity_entitlement"`
	MaternityTaken          int       `gorm:"default:0" json:"maternity_taken"`
	MarriageLeaveEntitlement int      `gorm:"default:10" json:"marriage_leave_entitlement"`
	MarriageLeaveTaken      int       `gorm:"default:0" json:"marriage_leave_taken"`
	LastLeaveDate           time.Time `json:"last_leave_date"`
}

func (LeaveBalance) TableName() string { return "leave_balances" }

type TrainingRecord struct {
	TrainingID     uint      `gorm:"primaryKey;autoIncrement;column:training_id" json:"training_id"`
	UserID         uint      `gorm:"index;column:user_id" json:"user_id"`
	TrainingTitle  string    `gorm:"type:varchar(200);not null" json:"training_title"`
	Provider       string    `gorm:"type:varchar(150)" json:"provider"`
	CompletionDate time.Time `json:"completion_date"`
	CertificateURL string    `gorm:"type:varchar(255);column:certificate_url" json:"certificate_url"`
}

func (TrainingRecord) TableName() string { return "training_records" }

func CreateUser(db *gorm.DB, user *User) error {
	if err := db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func UserExists(db *gorm.DB, email, employeeID string) bool {
	var count int64
	db.Model(&User{}).Where("email = ? OR employee_id = ?", email, employeeID).Count(&count)
	return count > 0
}

func GetUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &user, nil
}

func GetUserByID(db *gorm.DB, userID uint) (*User, error) {
	var user User
	if err := db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &user, nil
}

func GetAcademicProfile(db *gorm.DB, userID uint) (*AcademicProfile, error) {
	var profile AcademicProfile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &profile, nil
}

func GetLeaveBalance(db *gorm.DB, userID uint) (*LeaveBalance, error) {
	var balance LeaveBalance
	if err := db.Where("user_id = ?", userID).First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &balance, nil
}

func ListTrainingRecords(db *gorm.DB, userID uint) ([]TrainingRecord, error) {
	var records []TrainingRecord
	if err := db.Where("user_id = ?", userID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return records, nil
}

func ListAcademicProfiles(db *gorm.DB) ([]AcademicProfile, error) {
	var profiles []AcademicProfile
	if err := db.Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return profiles, nil
}

func UpdateAcademicPromotion(db *gorm.DB, academicID uint, score float64, eligible bool) error {
	if err := db.Model(&AcademicProfile{}).Where("academic_id = ?", academicID).
		Updates(map[string]interface{}{
			"promotion_eligibility_score": score,
			"eligible_for_promotion":      eligible,
		}).Error; err != nil {
		return fmt.Errorf("failed to update academic profile %d: %w", academicID, err)
	}
	return nil
}
