package health

import (
	"testing"
	"time"

	"github.com/atinyakov/KeyNest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strong = "qV7#mZ2!xK9$wL4@tR8%"

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(""))
	assert.Less(t, Score("password"), minScore)
	assert.GreaterOrEqual(t, Score(strong), minScore)
}

func TestAnalyse_Empty(t *testing.T) {
	r := Analyse(nil, time.Now())
	assert.Empty(t, r.Issues)
	assert.NotNil(t, r.Issues)
	assert.Equal(t, Summary{}, r.Summary)
}

func TestAnalyse(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fresh := models.NowMillis(now.Add(-24 * time.Hour))
	stale := models.NowMillis(now.Add(-200 * 24 * time.Hour))
	otp := models.StringPtr("JBSWY3DPEHPK3PXP")

	entries := []models.VaultEntry{
		{ID: "a", Password: strong, UpdatedAt: fresh, TOTPSecret: otp},
		{ID: "b", Password: "password", UpdatedAt: fresh, TOTPSecret: otp},
		{ID: "c", Password: strong, UpdatedAt: stale},
	}
	r := Analyse(entries, now)

	assert.Equal(t, Summary{Weak: 1, Reused: 2, Old: 1, No2FA: 1}, r.Summary)
	require.Len(t, r.Issues, 5)

	assert.Equal(t, Issue{EntryID: "b", Type: Weak, Detail: r.Issues[0].Detail}, r.Issues[0])
	assert.Contains(t, r.Issues[0].Detail, "/4")
	assert.Equal(t, Issue{EntryID: "a", Type: Reused, Detail: "Reused 2 times"}, r.Issues[1])
	assert.Equal(t, Issue{EntryID: "c", Type: Reused, Detail: "Reused 2 times"}, r.Issues[2])
	assert.Equal(t, "c", r.Issues[3].EntryID)
	assert.Equal(t, Old, r.Issues[3].Type)
	assert.Contains(t, r.Issues[3].Detail, "over 180 days ago")
	assert.Equal(t, Issue{EntryID: "c", Type: No2FA}, r.Issues[4])
}

func TestAnalyse_EmptyTOTPSecretCountsAsMissing(t *testing.T) {
	r := Analyse([]models.VaultEntry{{ID: "a", Password: strong, UpdatedAt: models.NowMillis(time.Now()), TOTPSecret: models.StringPtr("")}}, time.Now())
	assert.Equal(t, Summary{No2FA: 1}, r.Summary)
}
