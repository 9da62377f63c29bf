package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTransactionSignedAmount(t *testing.T) {
	t.Parallel()

	t.Run("keeps income positive", func(t *testing.T) {
		t.Parallel()
		tx := Transaction{Amount: decimal.RequireFromString("120.50"), Type: TypeIncome}
		require.True(t, tx.SignedAmount().Equal(decimal.RequireFromString("120.50")))
	})

	t.Run("negates expenses", func(t *testing.T) {
		t.Parallel()
		tx := Transaction{Amount: decimal.RequireFromString("45.10"), Type: TypeExpense}
		require.True(t, tx.SignedAmount().Equal(decimal.RequireFromString("-45.10")))
	})

	t.Run("uses type rather than the stored sign", func(t *testing.T) {
		t.Parallel()
		tx := Transaction{Amount: decimal.RequireFromString("-30"), Type: TypeIncome}
		require.True(t, tx.SignedAmount().Equal(decimal.NewFromInt(30)))
	})
}

func TestEnumValidation(t *testing.T) {
	t.Parallel()

	require.True(t, RoleAdmin.Valid())
	require.False(t, Role("root").Valid())
	require.True(t, StatusInactive.Valid())
	require.False(t, UserStatus("banned").Valid())
	require.True(t, TypeExpense.Valid())
	require.False(t, TransactionType("transfer").Valid())
	require.True(t, AccountCredit.Valid())
	require.False(t, AccountType("loan").Valid())
	require.True(t, ThemeAuto.Valid())
	require.False(t, Theme("sepia").Valid())
}

func TestUserIsAdmin(t *testing.T) {
	t.Parallel()

	var nilUser *User
	require.False(t, nilUser.IsAdmin())
	require.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	require.False(t, (&User{Role: RoleNormal}).IsAdmin())
}

func TestMoneyJSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes amounts as numbers", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(Transaction{ID: "t1", Amount: decimal.RequireFromString("19.90"), Type: TypeExpense})
		require.NoError(t, err)
		require.Contains(t, string(data), `"amount":19.9`)
	})

	t.Run("decodes numbers and quoted strings", func(t *testing.T) {
		t.Parallel()
		var a, b Account
		require.NoError(t, json.Unmarshal([]byte(`{"balance": 1500.25}`), &a))
		require.NoError(t, json.Unmarshal([]byte(`{"balance": "1500.25"}`), &b))
		require.True(t, a.Balance.Equal(b.Balance))
	})
}

func TestMenuItemNesting(t *testing.T) {
	t.Parallel()

	var items []MenuItem
	raw := `[{"id":"m1","label":"Admin","path":"/admin","order":1,"visible":true,"roles":["admin"],
		"children":[{"id":"m2","label":"Users","path":"/admin/users","order":1,"visible":true,"roles":["admin"]}]}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 1)
	require.Len(t, items[0].Children, 1)
	require.Equal(t, "/admin/users", items[0].Children[0].Path)
}
