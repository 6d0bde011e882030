package domain

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
)

// Achievement catalog entry
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AchievementWelcome is granted on first join
const AchievementWelcome = "welcome"

// Achievements 부여 가능한 업적 목록
var Achievements = map[string]Achievement{
	AchievementWelcome: {ID: AchievementWelcome, Title: "Welcome", Description: "Joined the chat"},
	"chatterbox":       {ID: "chatterbox", Title: "Chatterbox", Description: "Never runs out of words"},
	"pollster":         {ID: "pollster", Title: "Pollster", Description: "Asked the chat what it thinks"},
	"peacekeeper":      {ID: "peacekeeper", Title: "Peacekeeper", Description: "Helped keep the chat civil"},
	"veteran":          {ID: "veteran", Title: "Veteran", Description: "Has been around for a long time"},
	"helper":           {ID: "helper", Title: "Helper", Description: "Answers newcomers' questions"},
}

// LookupAchievement returns the catalog entry for id
func LookupAchievement(id string) (Achievement, bool) {
	a, ok := Achievements[id]
	return a, ok
}

// AchievementSet unique achievement ids, stored as CSV
type AchievementSet []string

// Has reports whether id is in the set
func (s AchievementSet) Has(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// With returns a copy with id added
func (s AchievementSet) With(id string) AchievementSet {
	if s.Has(id) {
		return append(AchievementSet(nil), s...)
	}
	out := make(AchievementSet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, id)
}

// Without returns a copy with id removed
func (s AchievementSet) Without(id string) AchievementSet {
	out := make(AchievementSet, 0, len(s))
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Resolve returns catalog entries for known ids, sorted by id
func (s AchievementSet) Resolve() []Achievement {
	out := make([]Achievement, 0, len(s))
	for _, id := range s {
		if a, ok := Achievements[id]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Value CSV 직렬화
func (s AchievementSet) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "", nil
	}
	return strings.Join(s, ","), nil
}

// Scan CSV 역직렬화 (중복 제거)
func (s *AchievementSet) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into AchievementSet", src)
	}
	var out AchievementSet
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !out.Has(part) {
			out = append(out, part)
		}
	}
	*s = out
	return nil
}
