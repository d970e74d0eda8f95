package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/ofx"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/Veraticus/finanzas/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkingOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>POS PURCHASE STARBUCKS
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240131120000[0:GMT]
<TRNAMT>1200.00
<FITID>2024013101
<NAME>ACME PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(bytes.NewBufferString("y\n"))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// setupLedger creates a migrated database with one checking account.
func setupLedger(t *testing.T) (dbPath, accountID string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	dbPath = filepath.Join(t.TempDir(), "ledger.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(context.Background()))

	account, err := service.New(store).Accounts.Create(context.Background(), service.AccountInput{
		Name:           "Checking",
		Type:           "checking",
		Currency:       "USD",
		InitialBalance: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	return dbPath, account.ID
}

func balanceOf(t *testing.T, dbPath, accountID string) string {
	t.Helper()
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	account, err := store.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return account.Balance.String()
}

func TestMigrateStatus(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "fresh.db")

	out, err := executeCommand(t, "migrate", "--status", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "migrations pending")

	out, err = executeCommand(t, "migrate", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "schema version")

	out, err = executeCommand(t, "migrate", "--status", "--db", dbPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "migrations pending")
}

func TestImportOFX(t *testing.T) {
	dbPath, accountID := setupLedger(t)

	file := filepath.Join(t.TempDir(), "jan.qfx")
	require.NoError(t, os.WriteFile(file, []byte(checkingOFX), 0600))

	args := []string{"import-ofx", "--db", dbPath, "--account", "checking", "--income", "Salary", "--expense", "Food", file}

	out, err := executeCommand(t, append(args, "--dry-run")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Would import up to 2 entries")
	assert.Contains(t, out, "STARBUCKS")
	assert.Equal(t, "1000", balanceOf(t, dbPath, accountID))

	out, err = executeCommand(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 transactions into Checking (0 already present)")
	assert.Equal(t, "2174.5", balanceOf(t, dbPath, accountID))

	out, err = executeCommand(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 transactions into Checking (2 already present)")
	assert.Equal(t, "2174.5", balanceOf(t, dbPath, accountID))

	out, err = executeCommand(t, "checkpoint", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "auto-import-")
}

func TestImportOFXUnknownCategory(t *testing.T) {
	dbPath, _ := setupLedger(t)

	file := filepath.Join(t.TempDir(), "jan.ofx")
	require.NoError(t, os.WriteFile(file, []byte(checkingOFX), 0600))

	_, err := executeCommand(t, "import-ofx", "--db", dbPath, "--account", "Checking",
		"--income", "Food", "--expense", "Food", file)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSummaryVerify(t *testing.T) {
	dbPath, _ := setupLedger(t)

	out, err := executeCommand(t, "summary", "--verify", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Checking")
	assert.Contains(t, out, "US$1,000.00")
	assert.Contains(t, out, "All 1 balances match their history")
}

func TestReconcile(t *testing.T) {
	dbPath, _ := setupLedger(t)

	out, err := executeCommand(t, "reconcile", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "0 payments marked overdue")
}

func TestCategoriesCommands(t *testing.T) {
	dbPath, _ := setupLedger(t)

	out, err := executeCommand(t, "categories", "add", "Dividends", "--type", "income", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Added income category Dividends")

	_, err = executeCommand(t, "categories", "add", "Dividends", "--type", "income", "--db", dbPath)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	out, err = executeCommand(t, "categories", "list", "--type", "income", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Dividends")
	assert.Contains(t, out, "Salary")
	assert.NotContains(t, out, "Housing")
}

func TestCheckpointLifecycle(t *testing.T) {
	dbPath, accountID := setupLedger(t)

	out, err := executeCommand(t, "checkpoint", "create", "--tag", "before", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Created checkpoint before")

	file := filepath.Join(t.TempDir(), "jan.qfx")
	require.NoError(t, os.WriteFile(file, []byte(checkingOFX), 0600))
	_, err = executeCommand(t, "import-ofx", "--db", dbPath, "--account", accountID,
		"--income", "Salary", "--expense", "Food", "--no-checkpoint", file)
	require.NoError(t, err)
	require.Equal(t, "2174.5", balanceOf(t, dbPath, accountID))

	out, err = executeCommand(t, "checkpoint", "restore", "before", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored from checkpoint before")
	assert.Equal(t, "1000", balanceOf(t, dbPath, accountID))

	_, err = executeCommand(t, "checkpoint", "delete", "before", "--db", dbPath)
	require.NoError(t, err)

	_, err = executeCommand(t, "checkpoint", "delete", "before", "--db", dbPath)
	assert.ErrorIs(t, err, storage.ErrCheckpointNotFound)
}

func TestStatementEntries(t *testing.T) {
	statements := []ofx.Statement{
		{
			AccountID: "111",
			Currency:  "USD",
			Entries: []ofx.Entry{
				{FITID: "A", Payee: "Cafe", Amount: decimal.RequireFromString("-3.5"), Date: model.NewDate(2024, time.March, 1)},
				{FITID: "A", Payee: "Cafe", Amount: decimal.RequireFromString("-3.5"), Date: model.NewDate(2024, time.March, 1)},
				{Payee: "Cash deposit", Amount: decimal.NewFromInt(40), Date: model.NewDate(2024, time.March, 2)},
			},
		},
		{
			AccountID: "222",
			Entries:   []ofx.Entry{{FITID: "A", Payee: "Bookshop", Amount: decimal.NewFromInt(-12)}},
		},
	}

	entries, err := statementEntries(statements, "USD")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "111:A", entries[0].ExternalID)
	assert.Equal(t, "", entries[1].ExternalID)
	assert.Equal(t, "222:A", entries[2].ExternalID)
	assert.Equal(t, "Bookshop", entries[2].Description)

	_, err = statementEntries(statements, "EUR")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.5 KB", formatFileSize(1536))
	assert.Equal(t, "2.0 MB", formatFileSize(2*1024*1024))

	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", formatRelativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "1 minute ago", formatRelativeTime(now.Add(-time.Minute), now))
	assert.Equal(t, "3 hours ago", formatRelativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2 days ago", formatRelativeTime(now.Add(-49*time.Hour), now))
	assert.Equal(t, "2024-05-01", formatRelativeTime(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), now))
}
