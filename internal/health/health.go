// Package health reports weak, reused, stale and single-factor entries.
package health

import (
	"fmt"
	"time"

	"github.com/atinyakov/KeyNest/internal/models"
	"github.com/nbutton23/zxcvbn-go"
)

// IssueType names a class of problem.
type IssueType string

const (
	Weak   IssueType = "weak"
	Reused IssueType = "reused"
	Old    IssueType = "old"
	No2FA  IssueType = "no-2fa"
)

// MaxPasswordAge is how long a password may go unchanged before it is old.
const MaxPasswordAge = 180 * 24 * time.Hour

// minScore is the lowest zxcvbn score (0-4) not considered weak.
const minScore = 3

// Issue is a single finding for one entry.
type Issue struct {
	EntryID string    `json:"entryId"`
	Type    IssueType `json:"type"`
	Detail  string    `json:"detail,omitempty"`
}

// Summary counts issues by type.
type Summary struct {
	Weak   int `json:"weak"`
	Reused int `json:"reused"`
	Old    int `json:"old"`
	No2FA  int `json:"no2fa"`
}

// Report is the result of Analyse.
type Report struct {
	Issues  []Issue `json:"issues"`
	Summary Summary `json:"summary"`
}

// Score rates password strength from 0 (weakest) to 4.
func Score(password string) int {
	if password == "" {
		return 0
	}
	return zxcvbn.PasswordStrength(password, nil).Score
}

// Analyse inspects entries as of now. Issues are grouped by type in the
// order weak, reused, old, no-2fa.
func Analyse(entries []models.VaultEntry, now time.Time) Report {
	issues := []Issue{}

	for _, e := range entries {
		if s := Score(e.Password); s < minScore {
			issues = append(issues, Issue{EntryID: e.ID, Type: Weak, Detail: fmt.Sprintf("Strength score %d/4", s)})
		}
	}

	groups := make(map[string][]string)
	var order []string
	for _, e := range entries {
		if _, ok := groups[e.Password]; !ok {
			order = append(order, e.Password)
		}
		groups[e.Password] = append(groups[e.Password], e.ID)
	}
	for _, pw := range order {
		ids := groups[pw]
		if len(ids) < 2 {
			continue
		}
		for _, id := range ids {
			issues = append(issues, Issue{EntryID: id, Type: Reused, Detail: fmt.Sprintf("Reused %d times", len(ids))})
		}
	}

	nowMs := now.UnixMilli()
	maxAge := MaxPasswordAge.Milliseconds()
	for _, e := range entries {
		if nowMs-int64(e.UpdatedAt) > maxAge {
			updated := time.UnixMilli(int64(e.UpdatedAt)).UTC().Format(time.DateOnly)
			issues = append(issues, Issue{
				EntryID: e.ID,
				Type:    Old,
				Detail:  fmt.Sprintf("Last updated on %s (over %d days ago)", updated, int(MaxPasswordAge.Hours()/24)),
			})
		}
	}

	for _, e := range entries {
		if models.StringValue(e.TOTPSecret) == "" {
			issues = append(issues, Issue{EntryID: e.ID, Type: No2FA})
		}
	}

	r := Report{Issues: issues}
	for _, is := range issues {
		switch is.Type {
		case Weak:
			r.Summary.Weak++
		case Reused:
			r.Summary.Reused++
		case Old:
			r.Summary.Old++
		case No2FA:
			r.Summary.No2FA++
		}
	}
	return r
}
