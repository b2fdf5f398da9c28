package service

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist/model"
)

func newTestUsers(t *testing.T) (*UserService, *TokenService) {
	t.Helper()
	tokens := NewTokenService("test-secret")
	return NewUserService(newTestDB(t), tokens, testLogger()), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	users, _ := newTestUsers(t)

	input := &RegisterInput{
		EmployeeID: "GIU-AC-099",
		FullName:   "Nora Hassan",
		Email:      "nora.hassan@giu-uni.de",
		Password:   "s3cret",
		RoleType:   "lecturer",
		HireDate:   "2021-09-15",
	}
	require.NoError(t, users.Register(input))

	// Same employee id cannot register twice.
	err := users.Register(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	user, token, err := users.Login("nora.hassan@giu-uni.de", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "Nora Hassan", user.FullName)
	assert.NotEqual(t, "s3cret", user.Password)

	_, _, err = users.Login("nora.hassan@giu-uni.de", "wrong")
	assert.Error(t, err)

	_, _, err = users.Login("nobody@giu-uni.de", "s3cret")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("test-secret")

	td, err := tokens.CreateToken(7, "nora.hassan@giu-uni.de")
	require.NoError(t, err)
	require.NotEmpty(t, td.AccessToken)

	req := httptest.NewRequest("GET", "/v1/user/7/data", nil)
	req.Header.Set("Authorization", "Bearer "+td.AccessToken)

	require.NoError(t, tokens.TokenValid(req))

	details, err := tokens.ExtractTokenMetadata(req)
	require.NoError(t, err)
	assert.Equal(t, int64(7), details.UserID)
	assert.Equal(t, "nora.hassan@giu-uni.de", details.Email)
	assert.Equal(t, td.AccessUUID, details.AccessUUID)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tokens := NewTokenService("test-secret")
	other := NewTokenService("different-secret")

	td, err := tokens.CreateToken(7, "nora.hassan@giu-uni.de")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/v1/user/7/data", nil)
	req.Header.Set("Authorization", "Bearer "+td.AccessToken)

	_, err = other.ExtractTokenMetadata(req)
	assert.Error(t, err)
}

func TestLoadUserData(t *testing.T) {
	users, _ := newTestUsers(t)
	db := users.db

	require.NoError(t, model.SeedDatabase(db))

	lecturer, err := model.GetUserByEmail(db, "caroline.sabty@giu-uni.de")
	require.NoError(t, err)

	data, err := users.LoadUserData(lecturer.UserID)
	require.NoError(t, err)
	assert.Contains(t, data, "user")
	assert.Contains(t, data, "academic")
	assert.Contains(t, data, "leaves")
	assert.Contains(t, data, "training")
	assert.Contains(t, data, "chat_history")

	academic, ok := data["academic"].(*model.AcademicProfile)
	require.True(t, ok)
	require.NotNil(t, academic)
	assert.Equal(t, 8, academic.PublicationsCount)

	_, err = users.LoadUserData(99999)
	assert.Error(t, err)
}
