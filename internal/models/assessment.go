package models

import (
	"fmt"
	"math"
	"time"
)

// MinScore and MaxScore bound every area score.
const (
	MinScore = 1
	MaxScore = 10

	// DefaultScore is the starting value for a fresh draft.
	DefaultScore = 5
)

// Assessment is a single dated snapshot of scores and notes across all
// four areas. Scores and Notes are total maps over the fixed areas;
// Normalize enforces that before a record leaves this package's control.
type Assessment struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id,omitempty"`
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
	Scores    map[Area]int    `json:"scores"`
	Notes     map[Area]string `json:"notes"`
}

// NewDraft returns an unpersisted assessment with every score at the
// default and every note empty. The id is a client-side placeholder,
// replaced by the store on save.
func NewDraft(now time.Time) *Assessment {
	a := &Assessment{
		ID:     fmt.Sprintf("draft-%d", now.UnixNano()),
		Date:   now,
		Scores: make(map[Area]int, len(areaOrder)),
		Notes:  make(map[Area]string, len(areaOrder)),
	}
	for _, area := range areaOrder {
		a.Scores[area] = DefaultScore
		a.Notes[area] = ""
	}
	return a
}

// Normalize fills in any missing area keys so Scores and Notes are
// total maps, and clamps every score into the valid range.
func (a *Assessment) Normalize() {
	if a.Scores == nil {
		a.Scores = make(map[Area]int, len(areaOrder))
	}
	if a.Notes == nil {
		a.Notes = make(map[Area]string, len(areaOrder))
	}
	for _, area := range areaOrder {
		if v, ok := a.Scores[area]; ok {
			a.Scores[area] = ClampScore(float64(v))
		} else {
			a.Scores[area] = DefaultScore
		}
		if _, ok := a.Notes[area]; !ok {
			a.Notes[area] = ""
		}
	}
}

// Clone returns a deep copy. Trackers hand out clones so callers can
// never mutate the canonical list in place.
func (a *Assessment) Clone() *Assessment {
	cp := *a
	cp.Scores = make(map[Area]int, len(a.Scores))
	for k, v := range a.Scores {
		cp.Scores[k] = v
	}
	cp.Notes = make(map[Area]string, len(a.Notes))
	for k, v := range a.Notes {
		cp.Notes[k] = v
	}
	return &cp
}

// ClampScore rounds v to the nearest integer and clamps it into
// [MinScore, MaxScore].
func ClampScore(v float64) int {
	n := int(math.Round(v))
	if n < MinScore {
		return MinScore
	}
	if n > MaxScore {
		return MaxScore
	}
	return n
}

// User is an authenticated owner of assessment data.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	APIKey     string     `json:"-"` // never serialized
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// MaskedAPIKey returns the first 8 characters of the key for safe logging.
func (u *User) MaskedAPIKey() string {
	if len(u.APIKey) < 8 {
		return "***"
	}
	return u.APIKey[:8] + "..."
}
