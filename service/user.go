package service

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hrassist/model"
)

type UserService struct {
	db     *gorm.DB
	tokens *TokenService
	logger *logrus.Logger
}

func NewUserService(db *gorm.DB, tokens *TokenService, logger *logrus.Logger) *UserService {
	return &UserService{db: db, tokens: tokens, logger: logger}
}

type RegisterInput struct {
	EmployeeID          string `json:"employee_id" binding:"required"`
	FullName            string `json:"full_name" binding:"required"`
	Email               string `json:"email" binding:"required,email"`
	Password            string `json:"password" binding:"required"`
	RoleType            string `json:"role_type" binding:"required"`
	FacultyOrDepartment string `json:"faculty_or_department"`
	PositionTitle       string `json:"position_title"`
	ContractType        string `json:"contract_type"`
	HireDate            string `json:"hire_date"`
}

func (s *UserService) Register(input *RegisterInput) error {
	if model.UserExists(s.db, input.Email, input.EmployeeID) {
		return errors.New("user already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("internal server error")
	}

	hireDate := time.Now()
	if input.HireDate != "" {
		if parsed, err := time.Parse("2006-01-02", input.HireDate); err == nil {
			hireDate = parsed
		}
	}

	newUser := &model.User{
		EmployeeID:          input.EmployeeID,
		FullName:            input.FullName,
		Email:               input.Email,
		Password:            string(hashedPassword),
		RoleType:            input.RoleType,
		FacultyOrDepartment: input.FacultyOrDepartment,
		PositionTitle:       input.PositionTitle,
		ContractType:        input.ContractType,
		HireDate:            hireDate,
		IsActive:            true,
	}
	if err := model.CreateUser(s.db, newUser); err != nil {
		s.logger.Warnf("failed to create user %s: %s", input.Email, err)
		return errors.New("internal server error")
	}
	return nil
}

// Login verifies credentials and returns the user plus a signed token.
func (s *UserService) Login(email, password string) (*model.User, string, error) {
	user, err := model.GetUserByEmail(s.db, email)
	if err != nil {
		return nil, "", errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", errors.New("invalid email or password")
	}

	token, err := s.tokens.CreateToken(user.UserID, user.Email)
	if err != nil {
		s.logger.Warnf("error generating token for %s: %s", email, err)
		return nil, "", errors.New("failed to generate token")
	}

	return user, token.AccessToken, nil
}

// LoadUserData aggregates everything the frontend injects as the turn's
// personalization payload: profile, academic record, leave balances,
// training history, and recent conversations.
func (s *UserService) LoadUserData(userID uint) (map[string]any, error) {
	user, err := model.GetUserByID(s.db, userID)
	if err != nil {
		return nil, err
	}

	academic, err := model.GetAcademicProfile(s.db, userID)
	if err != nil {
		return nil, err
	}
	leaves, err := model.GetLeaveBalance(s.db, userID)
	if err != nil {
		return nil, err
	}
	training, err := model.ListTrainingRecords(s.db, userID)
	if err != nil {
		return nil, err
	}
	chatHistory, err := model.ListUserConversations(s.db, userID, false)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"user":         user,
		"academic":     academic,
		"leaves":       leaves,
		"training":     training,
		"chat_history": chatHistory,
	}, nil
}
