package models

import "github.com/shopspring/decimal"

// SystemStats is the admin dashboard summary.
type SystemStats struct {
	TotalUsers                 int             `json:"totalUsers"`
	ActiveUsers                int             `json:"activeUsers"`
	TotalTransactions          int             `json:"totalTransactions"`
	TotalRevenue               decimal.Decimal `json:"totalRevenue"`
	NewUsersThisMonth          int             `json:"newUsersThisMonth"`
	AverageTransactionsPerUser decimal.Decimal `json:"averageTransactionsPerUser"`
}

// MenuItem is a navigation entry. Children nest recursively.
type MenuItem struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Path     string     `json:"path"`
	Icon     string     `json:"icon,omitempty"`
	Order    int        `json:"order"`
	Visible  bool       `json:"visible"`
	Roles    []string   `json:"roles"`
	Children []MenuItem `json:"children,omitempty"`
}

// Permission grants an action on a resource to roles.
type Permission struct {
	ID          string   `json:"id"`
	Resource    string   `json:"resource"`
	Action      string   `json:"action"`
	Roles       []string `json:"roles"`
	Description string   `json:"description,omitempty"`
}

// ActivityLog is one audited action.
type ActivityLog struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Action    string `json:"action"`
	Resource  string `json:"resource"`
	Details   any    `json:"details,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// ActivityLogPage is one page of activity logs.
type ActivityLogPage struct {
	Logs       []ActivityLog `json:"logs"`
	Pagination Pagination    `json:"pagination"`
}

// Theme is the UI color scheme preference.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeAuto
}

// NotificationSettings toggles outgoing notifications.
type NotificationSettings struct {
	Email             bool `json:"email"`
	Push              bool `json:"push"`
	TransactionAlerts bool `json:"transactionAlerts"`
	WeeklyReport      bool `json:"weeklyReport"`
}

// PrivacySettings controls data visibility.
type PrivacySettings struct {
	ShowBalance bool `json:"showBalance"`
	ShareData   bool `json:"shareData"`
}

// UserSettings is the per-user preference record.
type UserSettings struct {
	UserID        string               `json:"userId"`
	Theme         Theme                `json:"theme"`
	Language      string               `json:"language"`
	Currency      string               `json:"currency"`
	Notifications NotificationSettings `json:"notifications"`
	Privacy       PrivacySettings      `json:"privacy"`
	UpdatedAt     string               `json:"updatedAt,omitempty"`
}

// SettingsUpdate is a partial settings change. Nil fields are left untouched.
type SettingsUpdate struct {
	Theme         *Theme                `json:"theme,omitempty"`
	Language      *string               `json:"language,omitempty"`
	Currency      *string               `json:"currency,omitempty"`
	Notifications *NotificationSettings `json:"notifications,omitempty"`
	Privacy       *PrivacySettings      `json:"privacy,omitempty"`
}
