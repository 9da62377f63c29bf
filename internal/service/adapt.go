package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/config"
	"gitlab.com/yelinaung/finadm/internal/models"
)

// The backend is inconsistent about envelopes and field names. Every
// response passes through one of the adapt functions below; each lists its
// fallback order, first truthy value wins.

// object decodes a response body. Numbers stay json.Number so money keeps
// its precision. A bare array is returned under "data".
func object(resp *apiclient.Response) (map[string]any, error) {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"data": v}, nil
}

// truthy follows JavaScript truthiness, which is what the backend's
// clients were written against: objects and arrays are truthy even when empty.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0 && !math.IsNaN(f)
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}

func firstTruthy(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := m[k]; truthy(v) {
			return v
		}
	}
	return nil
}

func str(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func num(v any) decimal.Decimal {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(x)
	default:
		return decimal.Zero
	}
}

func intOf(v any) int {
	return int(num(v).IntPart())
}

func objectAt(m map[string]any, key string) map[string]any {
	o, _ := m[key].(map[string]any)
	return o
}

func listAt(v any) []any {
	l, _ := v.([]any)
	return l
}

// remarshal converts a decoded JSON value into a typed value.
func remarshal(v, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to re-encode response value: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response value: %w", err)
	}
	return nil
}

// field decodes m[key] into T. A missing key yields the zero value.
func field[T any](m map[string]any, key string) (T, error) {
	var out T
	v, ok := m[key]
	if !ok || v == nil {
		return out, nil
	}
	err := remarshal(v, &out)
	return out, err
}

// adaptUser: id ← id | userId | _id; role ← role | normal.
func adaptUser(m map[string]any) models.User {
	u := models.User{
		ID:         str(firstTruthy(m, "id", "userId", "_id")),
		Name:       str(m["name"]),
		Email:      str(m["email"]),
		Phone:      str(m["phone"]),
		Avatar:     str(m["avatar"]),
		Role:       models.Role(str(firstTruthy(m, "role"))),
		Occupation: str(m["occupation"]),
		CreatedAt:  str(m["createdAt"]),
		UpdatedAt:  str(m["updatedAt"]),
	}
	if u.Role == "" {
		u.Role = models.RoleNormal
	}
	if truthy(m["age"]) {
		age := intOf(m["age"])
		u.Age = &age
	}
	if v, ok := m["monthlyIncome"]; ok && v != nil {
		d := num(v)
		u.MonthlyIncome = &d
	}
	if v, ok := m["spendingLimit"]; ok && v != nil {
		d := num(v)
		u.SpendingLimit = &d
	}
	return u
}

// adminStatus: isActive when present | status when a valid enum | inactive.
func adminStatus(m map[string]any) models.UserStatus {
	if v, ok := m["isActive"]; ok && v != nil {
		if truthy(v) {
			return models.StatusActive
		}
		return models.StatusInactive
	}
	if s := models.UserStatus(str(m["status"])); s.Valid() {
		return s
	}
	return models.StatusInactive
}

// adaptAdminUser: adaptUser plus status, lastLogin and aggregate counts.
func adaptAdminUser(m map[string]any) models.AdminUser {
	u := models.AdminUser{
		User:      adaptUser(m),
		Status:    adminStatus(m),
		LastLogin: str(m["lastLogin"]),
	}
	if v, ok := m["transactionCount"]; ok && v != nil {
		n := intOf(v)
		u.TransactionCount = &n
	}
	if v, ok := m["totalBalance"]; ok && v != nil {
		d := num(v)
		u.TotalBalance = &d
	}
	return u
}

// adaptLoginResponse: access ← token | accessToken; refresh ← refreshToken
// | token; expiresIn is always the 24h default; user ← adaptUser(user).
// A body with no token at the top level is read from data.
func adaptLoginResponse(m map[string]any) (models.Session, error) {
	if firstTruthy(m, "token", "accessToken") == nil {
		if d := objectAt(m, "data"); d != nil {
			m = d
		}
	}

	s := models.Session{
		AccessToken:  str(firstTruthy(m, "token", "accessToken")),
		RefreshToken: str(firstTruthy(m, "refreshToken", "token")),
		ExpiresIn:    config.DefaultExpiresIn,
		User:         adaptUser(objectAt(m, "user")),
	}
	if s.AccessToken == "" {
		return models.Session{}, fmt.Errorf("login response missing access token")
	}
	return s, nil
}

// unwrapEntity: <name> | data.<name> | body.
func unwrapEntity(m map[string]any, name string) map[string]any {
	if o := objectAt(m, name); o != nil {
		return o
	}
	if d := objectAt(m, "data"); d != nil {
		if o := objectAt(d, name); o != nil {
			return o
		}
	}
	return m
}

// envelope: data when it is an object | body.
func envelope(m map[string]any) map[string]any {
	if d := objectAt(m, "data"); d != nil {
		return d
	}
	return m
}

// adaptPagination: current ← current | page | 1; limit ← limit | 20;
// total ← total | 0; pages ← pages | ceil(total/limit).
func adaptPagination(m map[string]any) models.Pagination {
	p := models.Pagination{
		Current: intOf(firstTruthy(m, "current", "page")),
		Limit:   intOf(firstTruthy(m, "limit")),
		Total:   intOf(firstTruthy(m, "total")),
		Pages:   intOf(firstTruthy(m, "pages")),
	}
	if p.Current == 0 {
		p.Current = config.DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = config.DefaultLimit
	}
	if p.Pages == 0 {
		divisor := p.Limit
		if divisor <= 0 {
			divisor = config.DefaultLimit
		}
		p.Pages = int(math.Ceil(float64(p.Total) / float64(divisor)))
	}
	return p
}

// adaptUserList: envelope ← data | body; list ← users | data | [];
// pagination ← pagination | meta.
func adaptUserList(m map[string]any) UserList {
	env := envelope(m)

	raw := listAt(firstTruthy(env, "users", "data"))
	users := make([]models.AdminUser, 0, len(raw))
	for _, item := range raw {
		if o, ok := item.(map[string]any); ok {
			users = append(users, adaptAdminUser(o))
		}
	}

	page := objectAt(env, "pagination")
	if page == nil {
		page = objectAt(env, "meta")
	}
	return UserList{Users: users, Pagination: adaptPagination(page)}
}

// adaptTransaction decodes one transaction; id falls back to _id.
func adaptTransaction(m map[string]any) (models.Transaction, error) {
	var tx models.Transaction
	if err := remarshal(m, &tx); err != nil {
		return models.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = str(m["_id"])
	}
	return tx, nil
}

// adaptTransactionList: envelope ← data | body; list ← transactions | [];
// pagination ← pagination.
func adaptTransactionList(m map[string]any) (TransactionList, error) {
	env := envelope(m)

	raw := listAt(env["transactions"])
	txs := make([]models.Transaction, 0, len(raw))
	for _, item := range raw {
		o, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tx, err := adaptTransaction(o)
		if err != nil {
			return TransactionList{}, err
		}
		txs = append(txs, tx)
	}

	return TransactionList{
		Transactions: txs,
		Pagination:   adaptPagination(objectAt(env, "pagination")),
	}, nil
}

// fallbackCategoryName labels summary rows the backend left unnamed.
const fallbackCategoryName = "Other"

// adaptTransactionStats reads the per-user summary endpoint.
// summary: income, expenses (absolute), balance, count ← total_transactions | count.
// categories: id ← _id | category | categoryId | "other"; name ← category |
// categoryName | "Other"; type ← type | expense; total ← total_amount | total | 0.
func adaptTransactionStats(m map[string]any) models.TransactionStats {
	summary := objectAt(m, "summary")

	stats := models.TransactionStats{
		Summary: models.TransactionSummary{
			Income:   num(firstTruthy(summary, "income")),
			Expenses: num(firstTruthy(summary, "expenses")).Abs(),
			Balance:  num(firstTruthy(summary, "balance")),
			Count:    intOf(firstTruthy(summary, "total_transactions", "count")),
		},
		ByCategory: []models.CategorySummary{},
		ByAccount:  []models.AccountSummary{},
	}

	totals := map[models.TransactionType]decimal.Decimal{}
	for _, item := range listAt(m["categories"]) {
		cat, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := models.CategorySummary{
			CategoryID:   str(firstTruthy(cat, "_id", "category", "categoryId")),
			CategoryName: str(firstTruthy(cat, "category", "categoryName")),
			Type:         models.TransactionType(str(firstTruthy(cat, "type"))),
			Total:        num(firstTruthy(cat, "total_amount", "total")).Abs(),
			Count:        intOf(firstTruthy(cat, "count")),
		}
		if row.CategoryID == "" {
			row.CategoryID = "other"
		}
		if row.CategoryName == "" {
			row.CategoryName = fallbackCategoryName
		}
		if !row.Type.Valid() {
			row.Type = models.TypeExpense
		}
		totals[row.Type] = totals[row.Type].Add(row.Total)
		stats.ByCategory = append(stats.ByCategory, row)
	}

	hundred := decimal.NewFromInt(100)
	for i, row := range stats.ByCategory {
		if sum := totals[row.Type]; sum.IsPositive() {
			stats.ByCategory[i].Percentage = row.Total.Div(sum).Mul(hundred).Round(2)
		}
	}
	return stats
}

// unwrapUser: user | data.user | body.
func unwrapUser(m map[string]any) map[string]any {
	return unwrapEntity(m, "user")
}
