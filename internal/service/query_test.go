package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTransactionFilterValues(t *testing.T) {
	t.Parallel()

	t.Run("omits empty and all", func(t *testing.T) {
		t.Parallel()
		q := TransactionFilter{Type: "all", Category: "", Search: "coffee", Page: 2}.Values()
		require.Equal(t, "coffee", q.Get("q"))
		require.False(t, q.Has("search"))
		require.Equal(t, "2", q.Get("page"))
		require.False(t, q.Has("type"))
		require.False(t, q.Has("category"))
		require.False(t, q.Has("limit"))
	})

	t.Run("specific user adds userId", func(t *testing.T) {
		t.Parallel()
		q := TransactionFilter{Scope: SpecificUser("u9")}.Values()
		require.Equal(t, "u9", q.Get("userId"))
	})

	t.Run("current and all users send no userId", func(t *testing.T) {
		t.Parallel()
		require.False(t, TransactionFilter{Scope: CurrentUser()}.Values().Has("userId"))
		require.False(t, TransactionFilter{Scope: AllUsers()}.Values().Has("userId"))
	})

	t.Run("export subset", func(t *testing.T) {
		t.Parallel()
		q := TransactionFilter{AccountID: "a1", Search: "x", Type: "income", From: "2024-01-01"}.ExportValues()
		require.Equal(t, "a1", q.Get("accountId"))
		require.Equal(t, "income", q.Get("type"))
		require.Equal(t, "2024-01-01", q.Get("from"))
		require.False(t, q.Has("q"))
	})
}

func TestSearchIsSentAsQ(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    map[string][]string
	}{
		{"transactions", TransactionFilter{Search: "rent"}.Values()},
		{"accounts", AccountFilter{Search: "rent"}.Values()},
		{"categories", CategoryFilter{Search: "rent"}.Values()},
		{"users", UserFilter{Search: "rent"}.Values()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, []string{"rent"}, tt.q["q"])
			require.NotContains(t, tt.q, "search")
		})
	}
}

func TestScope(t *testing.T) {
	t.Parallel()

	require.Equal(t, ScopeCurrentUser, Scope{}.Kind())
	require.Equal(t, ScopeCurrentUser, SpecificUser("  ").Kind())
	require.Equal(t, ScopeSpecificUser, SpecificUser("u1").Kind())
	require.Equal(t, "u1", SpecificUser("u1").UserID())
	require.Empty(t, AllUsers().UserID())
	require.Equal(t, "all-users", AllUsers().Kind().String())
}

func TestUserFilterValues(t *testing.T) {
	t.Parallel()

	q := UserFilter{Search: "ana", Role: "all", Status: "active", Limit: 50}.Values()
	require.Equal(t, "ana", q.Get("q"))
	require.False(t, q.Has("search"))
	require.False(t, q.Has("role"))
	require.Equal(t, "active", q.Get("status"))
	require.Equal(t, "50", q.Get("limit"))

	export := UserFilter{Search: "ana", Role: "admin"}.ExportValues()
	require.Equal(t, "admin", export.Get("role"))
	require.False(t, export.Has("q"))
}

func filterValue() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.SampledFrom([]string{"", "all", "ALL", "All", "  "}),
		rapid.StringMatching(`[a-z0-9-]{1,12}`),
	)
}

func kept(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "all")
}

func TestFilterSerializationProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := TransactionFilter{
			Category:  filterValue().Draw(t, "category"),
			Type:      filterValue().Draw(t, "type"),
			From:      filterValue().Draw(t, "from"),
			To:        filterValue().Draw(t, "to"),
			Search:    filterValue().Draw(t, "search"),
			Sort:      filterValue().Draw(t, "sort"),
			Page:      rapid.IntRange(-3, 50).Draw(t, "page"),
			Limit:     rapid.IntRange(-3, 100).Draw(t, "limit"),
			StartDate: filterValue().Draw(t, "startDate"),
		}
		q := f.Values()

		for key, values := range q {
			if len(values) != 1 {
				t.Fatalf("%s: expected one value, got %v", key, values)
			}
			if !kept(values[0]) {
				t.Fatalf("%s: serialized dropped value %q", key, values[0])
			}
		}

		fields := map[string]string{
			"category": f.Category, "type": f.Type, "from": f.From, "to": f.To,
			"q": f.Search, "sort": f.Sort, "startDate": f.StartDate,
		}
		for key, v := range fields {
			if kept(v) != q.Has(key) {
				t.Fatalf("%s: value %q kept=%v but present=%v", key, v, kept(v), q.Has(key))
			}
		}
		if (f.Page > 0) != q.Has("page") || (f.Limit > 0) != q.Has("limit") {
			t.Fatalf("page/limit presence mismatch: %v", q)
		}
	})
}

func TestStatsPeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to string
		want     string
	}{
		{"six days", "2024-01-01", "2024-01-07", Period7d},
		{"seven days", "2024-01-01", "2024-01-08", Period7d},
		{"eight days", "2024-01-01", "2024-01-09", Period30d},
		{"thirty days", "2024-01-01", "2024-01-31", Period30d},
		{"sixty days", "2024-01-01", "2024-03-01", Period90d},
		{"ninety days", "2024-01-01", "2024-03-31", Period90d},
		{"a year", "2024-01-01", "2024-12-31", Period1y},
		{"reversed range", "2024-01-08", "2024-01-01", Period7d},
		{"rfc3339", "2024-01-01T00:00:00Z", "2024-01-03T12:00:00Z", Period7d},
		{"no range", "", "", Period30d},
		{"one side missing", "2024-01-01", "", Period30d},
		{"unparseable", "yesterday", "2024-01-01", Period30d},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, StatsPeriod(tt.from, tt.to))
		})
	}
}
