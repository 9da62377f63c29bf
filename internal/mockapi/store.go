package mockapi

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/yelinaung/finadm/internal/models"
)

type userRecord struct {
	user         models.User
	passwordHash []byte
	active       bool
	lastLogin    string
}

// store is guarded by Server.mu.
type store struct {
	users         map[string]*userRecord
	byEmail       map[string]string
	userOrder     []string
	refreshTokens map[string]string

	transactions map[string]*models.Transaction
	txOrder      []string

	accounts     map[string]*models.Account
	accountOrder []string

	categories    map[string]*models.Category
	categoryOrder []string

	settings    map[string]*models.UserSettings
	menu        []models.MenuItem
	permissions []models.Permission
	logs        []models.ActivityLog
}

func newID() string {
	return uuid.NewString()
}

// userIDFor derives a stable id from the email so tokens issued by one
// Server stay valid against a fresh one seeded the same way.
func userIDFor(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("finadm-mock:"+strings.ToLower(email))).String()
}

func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return hash
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

var defaultCategories = []struct {
	name  string
	typ   models.TransactionType
	color string
	icon  string
}{
	{"Salary", models.TypeIncome, "#2e7d32", "briefcase"},
	{"Freelance", models.TypeIncome, "#558b2f", "laptop"},
	{"Food", models.TypeExpense, "#ef6c00", "utensils"},
	{"Rent", models.TypeExpense, "#6a1b9a", "home"},
	{"Transport", models.TypeExpense, "#1565c0", "bus"},
	{"Leisure", models.TypeExpense, "#ad1457", "music"},
}

func seed(now time.Time) *store {
	db := &store{
		users:         make(map[string]*userRecord),
		byEmail:       make(map[string]string),
		refreshTokens: make(map[string]string),
		transactions:  make(map[string]*models.Transaction),
		accounts:      make(map[string]*models.Account),
		categories:    make(map[string]*models.Category),
		settings:      make(map[string]*models.UserSettings),
	}

	admin := db.addUser(now, "Admin", AdminEmail, AdminPassword, models.RoleAdmin)
	user := db.addUser(now, "Maria Silva", UserEmail, UserPassword, models.RoleNormal)

	for _, id := range []string{admin.ID, user.ID} {
		db.addDefaultCategories(now, id)
		db.addAccount(now, id, "Checking", models.AccountChecking, decimal.NewFromInt(2500))
		db.addAccount(now, id, "Savings", models.AccountSavings, decimal.NewFromInt(10000))
	}

	day := 24 * time.Hour
	db.addTransaction(now, user.ID, "Salary", models.TypeIncome, "5000", "Monthly salary", now.Add(-2*day))
	db.addTransaction(now, user.ID, "Food", models.TypeExpense, "45.90", "Groceries", now.Add(-1*day))
	db.addTransaction(now, user.ID, "Rent", models.TypeExpense, "1500", "Apartment", now.Add(-3*day))
	db.addTransaction(now, user.ID, "Transport", models.TypeExpense, "12.50", "Bus pass", now.Add(-12*day))
	db.addTransaction(now, user.ID, "Leisure", models.TypeExpense, "80", "Concert", now.Add(-45*day))
	db.addTransaction(now, admin.ID, "Freelance", models.TypeIncome, "1200", "Consulting", now.Add(-4*day))
	db.addTransaction(now, admin.ID, "Food", models.TypeExpense, "32.40", "Lunch", now.Add(-2*day))

	db.menu = []models.MenuItem{
		{ID: "dashboard", Label: "Dashboard", Path: "/", Icon: "home", Order: 1, Visible: true, Roles: []string{"admin", "normal"}},
		{ID: "transactions", Label: "Transactions", Path: "/transactions", Icon: "list", Order: 2, Visible: true, Roles: []string{"admin", "normal"}},
		{ID: "admin", Label: "Admin", Path: "/admin", Icon: "shield", Order: 3, Visible: true, Roles: []string{"admin"}, Children: []models.MenuItem{
			{ID: "admin-users", Label: "Users", Path: "/admin/users", Order: 1, Visible: true, Roles: []string{"admin"}},
		}},
	}
	db.permissions = []models.Permission{
		{ID: "users-read", Resource: "users", Action: "read", Roles: []string{"admin"}},
		{ID: "users-write", Resource: "users", Action: "write", Roles: []string{"admin"}},
		{ID: "transactions-read", Resource: "transactions", Action: "read", Roles: []string{"admin", "normal"}},
		{ID: "transactions-write", Resource: "transactions", Action: "write", Roles: []string{"admin", "normal"}},
	}
	return db
}

func (db *store) addUser(now time.Time, name, email, password string, role models.Role) models.User {
	u := models.User{
		ID:        userIDFor(email),
		Name:      name,
		Email:     strings.ToLower(email),
		Role:      role,
		CreatedAt: stamp(now),
		UpdatedAt: stamp(now),
	}
	db.users[u.ID] = &userRecord{user: u, passwordHash: hashPassword(password), active: true}
	db.byEmail[u.Email] = u.ID
	db.userOrder = append(db.userOrder, u.ID)
	db.settings[u.ID] = defaultSettings(u.ID, now)
	return u
}

func (db *store) removeUser(id string) {
	rec, ok := db.users[id]
	if !ok {
		return
	}
	delete(db.byEmail, rec.user.Email)
	delete(db.users, id)
	delete(db.settings, id)
	db.userOrder = without(db.userOrder, id)

	for token, owner := range db.refreshTokens {
		if owner == id {
			delete(db.refreshTokens, token)
		}
	}
	for _, txID := range append([]string(nil), db.txOrder...) {
		if db.transactions[txID].UserID == id {
			db.deleteTransaction(txID)
		}
	}
}

func defaultSettings(userID string, now time.Time) *models.UserSettings {
	return &models.UserSettings{
		UserID:        userID,
		Theme:         models.ThemeLight,
		Language:      "pt-BR",
		Currency:      models.DefaultCurrency,
		Notifications: models.NotificationSettings{Email: true, TransactionAlerts: true},
		Privacy:       models.PrivacySettings{ShowBalance: true},
		UpdatedAt:     stamp(now),
	}
}

func (db *store) addDefaultCategories(now time.Time, userID string) []models.Category {
	added := make([]models.Category, 0, len(defaultCategories))
	for _, c := range defaultCategories {
		cat := &models.Category{
			ID:        newID(),
			UserID:    userID,
			Name:      c.name,
			Type:      c.typ,
			Color:     c.color,
			Icon:      c.icon,
			CreatedAt: stamp(now),
		}
		db.categories[cat.ID] = cat
		db.categoryOrder = append(db.categoryOrder, cat.ID)
		added = append(added, *cat)
	}
	return added
}

func (db *store) addAccount(now time.Time, userID, name string, typ models.AccountType, balance decimal.Decimal) *models.Account {
	acc := &models.Account{
		ID:             newID(),
		UserID:         userID,
		Name:           name,
		Type:           typ,
		Balance:        balance,
		Currency:       models.DefaultCurrency,
		InitialBalance: &balance,
		CreatedAt:      stamp(now),
		UpdatedAt:      stamp(now),
	}
	db.accounts[acc.ID] = acc
	db.accountOrder = append(db.accountOrder, acc.ID)
	return acc
}

func (db *store) addTransaction(now time.Time, userID, category string, typ models.TransactionType, amount, description string, date time.Time) *models.Transaction {
	tx := &models.Transaction{
		ID:          newID(),
		UserID:      userID,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		Date:        date.Format(time.DateOnly),
		Description: description,
		Type:        typ,
		CreatedAt:   stamp(now),
		UpdatedAt:   stamp(now),
	}
	db.putTransaction(tx)
	return tx
}

func (db *store) putTransaction(tx *models.Transaction) {
	if _, exists := db.transactions[tx.ID]; !exists {
		db.txOrder = append(db.txOrder, tx.ID)
	}
	db.transactions[tx.ID] = tx
}

func (db *store) deleteTransaction(id string) {
	delete(db.transactions, id)
	db.txOrder = without(db.txOrder, id)
}

// transactionsOf returns the transactions of one user, or everyone's when
// userID is empty, newest first.
func (db *store) transactionsOf(userID string) []models.Transaction {
	out := make([]models.Transaction, 0, len(db.txOrder))
	for i := len(db.txOrder) - 1; i >= 0; i-- {
		tx := db.transactions[db.txOrder[i]]
		if userID == "" || tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	return out
}

func (db *store) log(now time.Time, u *models.User, action, resource string) {
	entry := models.ActivityLog{
		ID:        newID(),
		Action:    action,
		Resource:  resource,
		CreatedAt: stamp(now),
	}
	if u != nil {
		entry.UserID = u.ID
		entry.UserName = u.Name
	}
	db.logs = append(db.logs, entry)
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
