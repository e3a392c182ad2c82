package query

import "github.com/BradenHooton/realmadmin/internal/models"

// Page is one window of a MatchSet. Count is the size of the whole MatchSet.
type Page struct {
	Users []*models.User
	Count int
}

// Paginate returns up to max users of ms starting at first. Callers validate
// first >= 0 and max > 0; out-of-range windows yield an empty page.
func Paginate(ms MatchSet, first, max int) Page {
	page := Page{Users: []*models.User{}, Count: len(ms)}
	if first < 0 || max <= 0 || first >= len(ms) {
		return page
	}
	end := first + max
	if end > len(ms) || end < first {
		end = len(ms)
	}
	page.Users = ms[first:end]
	return page
}
