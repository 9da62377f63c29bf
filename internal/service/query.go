package service

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// addParam sets key unless value is empty or the "all" sentinel.
func addParam(q url.Values, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "all") {
		return
	}
	q.Set(key, value)
}

func addInt(q url.Values, key string, value int) {
	if value > 0 {
		q.Set(key, strconv.Itoa(value))
	}
}

// ScopeKind says whose transactions a query covers.
type ScopeKind int

// Scope kinds.
const (
	ScopeCurrentUser ScopeKind = iota
	ScopeAllUsers
	ScopeSpecificUser
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeAllUsers:
		return "all-users"
	case ScopeSpecificUser:
		return "specific-user"
	default:
		return "current-user"
	}
}

// Scope selects the owner of listed transactions. The zero value is the
// current user.
type Scope struct {
	kind   ScopeKind
	userID string
}

// CurrentUser scopes to the authenticated user.
func CurrentUser() Scope { return Scope{kind: ScopeCurrentUser} }

// AllUsers scopes to every user. Only admins get more than their own rows.
func AllUsers() Scope { return Scope{kind: ScopeAllUsers} }

// SpecificUser scopes to one user. An empty id means the current user.
func SpecificUser(id string) Scope {
	if strings.TrimSpace(id) == "" {
		return CurrentUser()
	}
	return Scope{kind: ScopeSpecificUser, userID: id}
}

// Kind returns the scope kind.
func (s Scope) Kind() ScopeKind { return s.kind }

// UserID is set only for SpecificUser scopes.
func (s Scope) UserID() string { return s.userID }

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	Scope      Scope
	Category   string
	Type       string
	From       string
	To         string
	StartDate  string
	EndDate    string
	Search     string
	Sort       string
	AccountID  string
	CategoryID string
	Page       int
	Limit      int
}

// Values serializes the filter for GET /transactions.
func (f TransactionFilter) Values() url.Values {
	q := url.Values{}
	if f.Scope.Kind() == ScopeSpecificUser {
		addParam(q, "userId", f.Scope.UserID())
	}
	addParam(q, "category", f.Category)
	addParam(q, "type", f.Type)
	addParam(q, "from", f.From)
	addParam(q, "to", f.To)
	addParam(q, "startDate", f.StartDate)
	addParam(q, "endDate", f.EndDate)
	addParam(q, "q", f.Search)
	addParam(q, "sort", f.Sort)
	addInt(q, "page", f.Page)
	addInt(q, "limit", f.Limit)
	return q
}

// ExportValues serializes the subset GET /transactions/export understands.
func (f TransactionFilter) ExportValues() url.Values {
	q := url.Values{}
	addParam(q, "accountId", f.AccountID)
	addParam(q, "categoryId", f.CategoryID)
	addParam(q, "type", f.Type)
	addParam(q, "from", f.From)
	addParam(q, "to", f.To)
	return q
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search string
	Role   string
	Status string
	Page   int
	Limit  int
}

// Values serializes the filter for GET /users. Search goes out as q.
func (f UserFilter) Values() url.Values {
	q := url.Values{}
	addParam(q, "q", f.Search)
	addParam(q, "role", f.Role)
	addParam(q, "status", f.Status)
	addInt(q, "page", f.Page)
	addInt(q, "limit", f.Limit)
	return q
}

// ExportValues serializes the subset GET /users/export understands.
func (f UserFilter) ExportValues() url.Values {
	q := url.Values{}
	addParam(q, "role", f.Role)
	addParam(q, "status", f.Status)
	return q
}

// AccountFilter narrows the account listing.
type AccountFilter struct {
	Type   string
	Search string
	Page   int
	Limit  int
}

// Values serializes the filter for GET /accounts.
func (f AccountFilter) Values() url.Values {
	q := url.Values{}
	addParam(q, "type", f.Type)
	addParam(q, "q", f.Search)
	addInt(q, "page", f.Page)
	addInt(q, "limit", f.Limit)
	return q
}

// CategoryFilter narrows the category listing.
type CategoryFilter struct {
	Type   string
	Search string
}

// Values serializes the filter for GET /categories.
func (f CategoryFilter) Values() url.Values {
	q := url.Values{}
	addParam(q, "type", f.Type)
	addParam(q, "q", f.Search)
	return q
}

// ReportFilter selects the period and grouping of a report.
type ReportFilter struct {
	From       string
	To         string
	GroupBy    string
	AccountID  string
	CategoryID string
}

// Values serializes the filter for the report endpoints.
func (f ReportFilter) Values() url.Values {
	q := url.Values{}
	addParam(q, "from", f.From)
	addParam(q, "to", f.To)
	addParam(q, "groupBy", f.GroupBy)
	addParam(q, "accountId", f.AccountID)
	addParam(q, "categoryId", f.CategoryID)
	return q
}

// ActivityLogFilter narrows the activity log listing.
type ActivityLogFilter struct {
	UserID string
	Action string
	From   string
	To     string
	Page   int
	Limit  int
}

// Values serializes the filter for GET /admin/activity-logs.
func (f ActivityLogFilter) Values() url.Values {
	q := url.Values{}
	addParam(q, "userId", f.UserID)
	addParam(q, "action", f.Action)
	addParam(q, "from", f.From)
	addParam(q, "to", f.To)
	addInt(q, "page", f.Page)
	addInt(q, "limit", f.Limit)
	return q
}

// Stats periods understood by the summary endpoint.
const (
	Period7d  = "7d"
	Period30d = "30d"
	Period90d = "90d"
	Period1y  = "1y"
)

// StatsPeriod buckets a date range into the nearest summary period. Ranges
// that are missing or unparseable fall back to 30d.
func StatsPeriod(from, to string) string {
	start, okStart := parseDate(from)
	end, okEnd := parseDate(to)
	if !okStart || !okEnd {
		return Period30d
	}

	days := math.Ceil(math.Abs(end.Sub(start).Hours()) / 24)
	switch {
	case days <= 7:
		return Period7d
	case days <= 30:
		return Period30d
	case days <= 90:
		return Period90d
	default:
		return Period1y
	}
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
