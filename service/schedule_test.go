package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist/model"
	"hrassist/platform"
)

func TestRefreshPromotionScores(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, model.SeedDatabase(db))

	schedule := NewScheduleService(db, platform.SMTPConfig{}, testLogger())

	// The seeded lecturer meets the thresholds and crosses into
	// eligibility on the first pass.
	newlyEligible, err := schedule.RefreshPromotionScores()
	require.NoError(t, err)
	require.Len(t, newlyEligible, 1)
	assert.Equal(t, "GIU-AC-001", newlyEligible[0].EmployeeID)

	lecturer, err := model.GetUserByEmail(db, "caroline.sabty@giu-uni.de")
	require.NoError(t, err)
	profile, err := model.GetAcademicProfile(db, lecturer.UserID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.True(t, profile.EligibleForPromotion)
	assert.Equal(t, float64(20), profile.PromotionEligibilityScore)

	// Already eligible, so the second pass reports nobody new.
	newlyEligible, err = schedule.RefreshPromotionScores()
	require.NoError(t, err)
	assert.Empty(t, newlyEligible)
}

func TestSendEligibilityDigestWithoutSMTP(t *testing.T) {
	db := newTestDB(t)
	schedule := NewScheduleService(db, platform.SMTPConfig{}, testLogger())

	// No relay configured: the digest is skipped, not an error.
	err := schedule.SendEligibilityDigest([]model.User{{FullName: "Dr. Caroline Sabty"}})
	assert.NoError(t, err)
}
