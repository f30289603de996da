package main

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

func TestFakeProfileIsDeterministic(t *testing.T) {
	first := fakeProfile(gofakeit.New(42))
	second := fakeProfile(gofakeit.New(42))
	assert.Equal(t, first, second)
}

func TestFakeProfileRanges(t *testing.T) {
	faker := gofakeit.New(7)
	for i := 0; i < 50; i++ {
		profile := fakeProfile(faker)

		assert.True(t, strings.HasSuffix(profile.Email, "@example.com"))
		assert.True(t, strings.HasPrefix(profile.Email, profile.Username))
		assert.Equal(t, strings.ToLower(profile.Username), profile.Username)
		assert.GreaterOrEqual(t, profile.Height, 150.0)
		assert.LessOrEqual(t, profile.Height, 195.0)
		assert.GreaterOrEqual(t, profile.Age, 18)
		assert.Contains(t, seedGoals, profile.Goal)
	}
}

func TestNewSeedUser(t *testing.T) {
	profile := seedProfile{Username: "lan123", Email: "lan123@example.com", Height: 160, Weight: 50, Age: 30, Goal: "giảm cân"}
	user := newSeedUser(profile, access.RoleUser, "hash")

	require.NotNil(t, user.Height)
	assert.Equal(t, 160.0, *user.Height)
	assert.Equal(t, "giảm cân", *user.HealthGoal)
	assert.Equal(t, access.RoleUser, user.Role)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestParseID(t *testing.T) {
	id, err := parseID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(raw)
		assert.Error(t, err, raw)
	}
}

func TestFormatUserRow(t *testing.T) {
	color.NoColor = true
	expertID := int64(4)

	row := formatUserRow(models.User{ID: 9, Role: "user", Username: "lan", Email: "lan@example.com", ExpertID: &expertID})
	assert.Contains(t, row, "lan@example.com")
	assert.True(t, strings.HasSuffix(row, "expert=4"))

	row = formatUserRow(models.User{ID: 4, Role: "expert", Username: "minh", Email: "minh@example.com"})
	assert.True(t, strings.HasSuffix(row, "expert=-"))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "abcdef", padRight("abcdef", 3))
}
