package model

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDatabase inserts a couple of demo staff members for local
// development. Existing users (by email/employee id) are left alone.
func SeedDatabase(db *gorm.DB) error {
	if err := seedLecturer(db); err != nil {
		return err
	}
	return seedAdmin(db)
}

func seedLecturer(db *gorm.DB) error {
	if UserExists(db, "caroline.sabty@giu-uni.de", "GIU-AC-001") {
		return nil
	}

	password, err := bcrypt.GenerateFromPassword([]byte("112233"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	user := User{
		EmployeeID:           "GIU-AC-001",
		FullName:             "Dr. Caroline Sabty",
		RoleType:             "academic",
		FacultyOrDepartment:  "Informatics and Computer Science",
		PositionTitle:        "Lecturer",
		ContractType:         "full-time",
		HireDate:             time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC),
		DateOfBirth:          time.Date(1985, 6, 12, 0, 0, 0, 0, time.UTC),
		ServiceYears:         6,
		SocialInsuranceYears: 6,
		IsActive:             true,
		Email:                "caroline.sabty@giu-uni.de",
		Password:             string(password),
	}
	if err := CreateUser(db, &user); err != nil {
		return err
	}

	if err := db.Create(&AcademicProfile{
		UserID:                     user.UserID,
		PhdAwardedYear:             2017,
		LastPromotionYear:          2019,
		PublicationsCount:          8,
		SingleAuthoredPublications: 2,
		HIndex:                     6,
		SupervisedPhdStudents:      1,
		SupervisedMastersStudents:  3,
		ResearchFundingUSD:         150000,
		WorkshopsOrganized:         2,
		AwardsCount:                1,
	}).Error; err != nil {
		return fmt.Errorf("failed to seed academic profile: %w", err)
	}

	if err := db.Create(&LeaveBalance{
		UserID:                   user.UserID,
		AnnualEntitlement:        21,
		AnnualTaken:              5,
		AccidentalEntitlement:    6,
		SickEntitlement:          180,
		MaternityEntitlement:     90,
		MarriageLeaveEntitlement: 10,
	}).Error; err != nil {
		return fmt.Errorf("failed to seed leave balance: %w", err)
	}

	if err := db.Create(&TrainingRecord{
		UserID:         user.UserID,
		TrainingTitle:  "Research Supervision Best Practices",
		Provider:       "GIU Staff Development",
		CompletionDate: time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
	}).Error; err != nil {
		return fmt.Errorf("failed to seed training record: %w", err)
	}
	return nil
}

func seedAdmin(db *gorm.DB) error {
	if UserExists(db, "hr.admin@giu-uni.de", "GIU-AD-001") {
		return nil
	}

	password, err := bcrypt.GenerateFromPassword([]byte("112233"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	user := User{
		EmployeeID:          "GIU-AD-001",
		FullName:            "Omar Fathy",
		RoleType:            "administrative",
		FacultyOrDepartment: "Human Resources",
		PositionTitle:       "HR Specialist",
		ContractType:        "full-time",
		HireDate:            time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
		IsActive:            true,
		IsAdmin:             true,
		Email:               "hr.admin@giu-uni.de",
		Password:            string(password),
	}
	if err := CreateUser(db, &user); err != nil {
		return err
	}

	if err := db.Create(&LeaveBalance{
		UserID:            user.UserID,
		AnnualEntitlement: 21,
	}).Error; err != nil {
		return fmt.Errorf("failed to seed leave balance: %w", err)
	}
	return nil
}
