package service

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hrassist/model"
	"hrassist/platform"
	"hrassist/tools"
)

// ScheduleService owns the nightly batch work: refreshing stored
// promotion scores and mailing admins about newly eligible staff.
type ScheduleService struct {
	db     *gorm.DB
	smtp   platform.SMTPConfig
	logger *logrus.Logger
}

func NewScheduleService(db *gorm.DB, smtpConfig platform.SMTPConfig, logger *logrus.Logger) *ScheduleService {
	return &ScheduleService{db: db, smtp: smtpConfig, logger: logger}
}

// RunNightly refreshes all promotion scores and sends the digest when
// anyone newly crossed the eligibility thresholds.
func (s *ScheduleService) RunNightly() {
	s.logger.Infof("[scheduled task] Start nightly promotion refresh")
	startTime := time.Now()

	newlyEligible, err := s.RefreshPromotionScores()
	if err != nil {
		s.logger.Warnf("[scheduled task] promotion refresh failed: %s", err)
		return
	}

	if len(newlyEligible) > 0 {
		if err := s.SendEligibilityDigest(newlyEligible); err != nil {
			s.logger.Warnf("[scheduled task] digest email failed: %s", err)
		}
	}

	s.logger.Infof("[scheduled task] Finished nightly promotion refresh, cost %v", time.Since(startTime))
}

// RefreshPromotionScores recomputes every academic profile against the
// rubric and stores the score and flag. Returns the users who became
// eligible in this pass.
func (s *ScheduleService) RefreshPromotionScores() ([]model.User, error) {
	profiles, err := model.ListAcademicProfiles(s.db)
	if err != nil {
		return nil, err
	}

	var newlyEligible []model.User
	for _, profile := range profiles {
		report := tools.CalculateEligibility(tools.AcademicSnapshot{
			PublicationsCount:          profile.PublicationsCount,
			SingleAuthoredPublications: profile.SingleAuthoredPublications,
			SupervisedPhdStudents:      profile.SupervisedPhdStudents,
			SupervisedMastersStudents:  profile.SupervisedMastersStudents,
			WorkshopsOrganized:         profile.WorkshopsOrganized,
			ResearchFundingUSD:         profile.ResearchFundingUSD,
		})

		score := float64(report.ScoreSummary.TotalActualScore)
		if err := model.UpdateAcademicPromotion(s.db, profile.AcademicID, score, report.Eligible); err != nil {
			s.logger.Warnf("failed to store promotion score for academic %d: %s", profile.AcademicID, err)
			continue
		}

		if report.Eligible && !profile.EligibleForPromotion {
			user, err := model.GetUserByID(s.db, profile.UserID)
			if err != nil {
				s.logger.Warnf("newly eligible user %d unresolvable: %s", profile.UserID, err)
				continue
			}
			newlyEligible = append(newlyEligible, *user)
		}
	}
	return newlyEligible, nil
}

// SendEligibilityDigest emails admins a rendered summary of staff who
// newly meet the promotion thresholds.
func (s *ScheduleService) SendEligibilityDigest(users []model.User) error {
	if s.smtp.Host == "" || s.smtp.AdminTo == "" {
		s.logger.Warnf("SMTP not configured, skipping eligibility digest for %d users", len(users))
		return nil
	}

	var b strings.Builder
	b.WriteString("# Promotion Eligibility Digest\n\n")
	fmt.Fprintf(&b, "%d staff member(s) newly meet the Lecturer → Associate Professor thresholds:\n\n", len(users))
	for _, user := range users {
		fmt.Fprintf(&b, "- **%s** (%s), %s\n", user.FullName, user.EmployeeID, user.FacultyOrDepartment)
	}
	htmlBody := markdown.ToHTML([]byte(b.String()), nil, nil)

	e := email.NewEmail()
	e.From = s.smtp.From
	e.To = []string{s.smtp.AdminTo}
	e.Subject = "Promotion eligibility digest"
	e.HTML = htmlBody

	addr := s.smtp.Host + ":" + s.smtp.Port
	auth := smtp.PlainAuth("", s.smtp.User, s.smtp.Password, s.smtp.Host)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}
	s.logger.Infof("[scheduled task] sent eligibility digest for %d users", len(users))
	return nil
}
