// Package ofx reads OFX/QFX bank and credit card statements.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// An opening tag alone on its line with no closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// StatementKind distinguishes bank from credit card statements.
type StatementKind string

// Statement kinds.
const (
	KindBank       StatementKind = "bank"
	KindCreditCard StatementKind = "creditcard"
)

// Entry is one posted statement line. Amount is signed: debits are negative.
type Entry struct {
	Date        model.Date
	FITID       string
	Name        string
	Payee       string
	Memo        string
	Type        string
	CheckNumber string
	Amount      decimal.Decimal
}

// Statement is the content of one account's statement.
type Statement struct {
	AccountID string
	Currency  string
	Kind      StatementKind
	Entries   []Entry
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file into its statements.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Statement, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var statements []Statement
	add := func(accountID ofxgo.String, curDef ofxgo.CurrSymbol, kind StatementKind, list *ofxgo.TransactionList) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := p.convertList(list)
		if err != nil {
			return err
		}
		statements = append(statements, Statement{
			AccountID: string(accountID),
			Currency:  curDef.String(),
			Kind:      kind,
			Entries:   entries,
		})
		return nil
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			if err := add(stmt.BankAcctFrom.AcctID, stmt.CurDef, KindBank, stmt.BankTranList); err != nil {
				return nil, err
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			if err := add(stmt.CCAcctFrom.AcctID, stmt.CurDef, KindCreditCard, stmt.BankTranList); err != nil {
				return nil, err
			}
		}
	}

	total := 0
	for _, s := range statements {
		total += len(s.Entries)
	}
	slog.Info("Parsed OFX file", "statements", len(statements), "total_entries", total)

	return statements, nil
}

func (p *Parser) convertList(list *ofxgo.TransactionList) ([]Entry, error) {
	if list == nil {
		return nil, nil
	}
	entries := make([]Entry, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		entry, err := p.convertTransaction(ofxTx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// convertTransaction converts an OFX transaction to a statement entry.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) (Entry, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(model.MoneyScale + 2))
	if err != nil {
		return Entry{}, fmt.Errorf("transaction %s: invalid amount: %w", ofxTx.FiTID, err)
	}

	return Entry{
		FITID:       string(ofxTx.FiTID),
		Date:        model.DateOf(ofxTx.DtPosted.Time),
		Name:        string(ofxTx.Name),
		Payee:       p.extractMerchantName(ofxTx),
		Memo:        string(ofxTx.Memo),
		Type:        ofxTx.TrnType.String(),
		CheckNumber: string(ofxTx.CheckNum),
		Amount:      model.RoundMoney(amount),
	}, nil
}

// Description is the text booked for the entry.
func (e Entry) Description() string {
	if e.CheckNumber != "" && !strings.Contains(e.Payee, e.CheckNumber) {
		return fmt.Sprintf("%s (check %s)", e.Payee, e.CheckNumber)
	}
	return e.Payee
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading "MM/DD " date.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}

// GetAccounts extracts unique account IDs from the OFX file.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	add := func(id ofxgo.String) {
		if id != "" && !seen[string(id)] {
			seen[string(id)] = true
			accounts = append(accounts, string(id))
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(stmt.BankAcctFrom.AcctID)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(stmt.CCAcctFrom.AcctID)
		}
	}

	return accounts, nil
}
