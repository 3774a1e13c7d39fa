package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/services"
	"github.com/danielgermany/penny-cli/internal/storage"
)

const dateLayout = "2006-01-02"

func (a *App) runTx(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny tx log|add|list|show|edit|delete|search")
	}
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "log":
		return a.txLog(ctx, sess.UserID, args[1:])
	case "add":
		return a.txAdd(ctx, sess.UserID, args[1:])
	case "list":
		return a.txList(ctx, sess.UserID, args[1:])
	case "show":
		return a.txShow(ctx, args[1:])
	case "edit":
		return a.txEdit(ctx, args[1:])
	case "delete":
		return a.txDelete(ctx, args[1:])
	case "search":
		return a.txSearch(ctx, sess.UserID, args[1:])
	default:
		return fmt.Errorf("unknown tx subcommand %q", args[0])
	}
}

// txLog records an expense from free text, e.g. penny tx log "coffee $5".
func (a *App) txLog(ctx context.Context, userID int64, args []string) error {
	fs := flag.NewFlagSet("tx log", flag.ContinueOnError)
	account := fs.String("account", "", "account name; optional with a single account")
	category := fs.String("category", "", "override the inferred category")
	date := fs.String("date", "", "transaction date (YYYY-MM-DD), default today")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return fmt.Errorf("usage: penny tx log \"coffee $5\"")
	}

	overrides := services.LogOverrides{AccountName: *account, Category: *category}
	if *date != "" {
		d, err := time.Parse(dateLayout, *date)
		if err != nil {
			return fmt.Errorf("date %q: %w", *date, core.ErrInvalidDate)
		}
		overrides.Date = d
	}

	t, parsed, err := a.txs.LogFromText(ctx, userID, text, overrides)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recorded #%d: %s at %s, %s (%s, confidence %.2f)\n",
		t.ID, core.FormatAmount(t.Amount), t.Merchant, t.Category,
		parsed.Source, parsed.Tx.Confidence)
	return nil
}

func (a *App) txAdd(ctx context.Context, userID int64, args []string) error {
	fs := flag.NewFlagSet("tx add", flag.ContinueOnError)
	account := fs.String("account", "", "account name (required)")
	amount := fs.String("amount", "", "amount (required)")
	typ := fs.String("type", "expense", "expense or income")
	merchant := fs.String("merchant", "", "merchant or payer")
	category := fs.String("category", "", "category")
	date := fs.String("date", "", "transaction date (YYYY-MM-DD), default today")
	notes := fs.String("notes", "", "free-form notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" || *amount == "" {
		return fmt.Errorf("--account and --amount are required")
	}

	acc, err := a.accounts.GetByName(ctx, userID, *account)
	if err != nil {
		return fmt.Errorf("account %q: %w", *account, err)
	}
	amt, err := core.ParseAmount(*amount)
	if err != nil {
		return err
	}
	when := time.Now()
	if *date != "" {
		if when, err = time.Parse(dateLayout, *date); err != nil {
			return fmt.Errorf("date %q: %w", *date, core.ErrInvalidDate)
		}
	}

	id, err := a.txs.Create(ctx, core.Transaction{
		UserID:    userID,
		AccountID: acc.ID,
		Date:      when,
		Amount:    amt,
		Type:      core.TransactionType(*typ),
		Merchant:  *merchant,
		Category:  *category,
		Notes:     *notes,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recorded #%d\n", id)
	return nil
}

func (a *App) txList(ctx context.Context, userID int64, args []string) error {
	fs := flag.NewFlagSet("tx list", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "number of transactions")
	month := fs.String("month", "", "calendar month (YYYY-MM) instead of most recent")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var txs []core.Transaction
	var err error
	if *month != "" {
		start, perr := time.Parse("2006-01", *month)
		if perr != nil {
			return fmt.Errorf("month %q: %w", *month, core.ErrInvalidDate)
		}
		txs, err = a.repo.ListTransactionsByMonth(ctx, userID, start.Year(), start.Month())
	} else {
		txs, err = a.txs.ListRecent(ctx, userID, *limit)
	}
	if err != nil {
		return err
	}
	return a.printTransactions(txs)
}

func (a *App) txShow(ctx context.Context, args []string) error {
	id, err := positionalID(args)
	if err != nil {
		return err
	}
	t, err := a.txs.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "#%d %s %s\n", t.ID, t.Date.Format(dateLayout), t.Type)
	fmt.Fprintf(a.out, "Amount: %s (effect %s)\n",
		core.FormatAmount(t.Amount), core.FormatAmount(t.SignedAmount()))
	if t.Merchant != "" {
		fmt.Fprintf(a.out, "Merchant: %s\n", t.Merchant)
	}
	if t.Category != "" {
		fmt.Fprintf(a.out, "Category: %s\n", t.Category)
	}
	if t.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", t.Description)
	}
	if t.Notes != "" {
		fmt.Fprintf(a.out, "Notes: %s\n", t.Notes)
	}
	if t.TransferPairID != "" {
		fmt.Fprintf(a.out, "Transfer pair: %s\n", t.TransferPairID)
	}
	return nil
}

func (a *App) txEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx edit", flag.ContinueOnError)
	id := fs.Int64("id", 0, "transaction id (required)")
	amount := fs.String("amount", "", "new amount")
	merchant := fs.String("merchant", "", "new merchant")
	category := fs.String("category", "", "new category")
	date := fs.String("date", "", "new date (YYYY-MM-DD)")
	notes := fs.String("notes", "", "new notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return fmt.Errorf("--id is required")
	}

	t, err := a.txs.Get(ctx, *id)
	if err != nil {
		return err
	}
	if *amount != "" {
		if t.Amount, err = core.ParseAmount(*amount); err != nil {
			return err
		}
	}
	if *merchant != "" {
		t.Merchant = *merchant
	}
	if *category != "" {
		t.Category = *category
	}
	if *date != "" {
		if t.Date, err = time.Parse(dateLayout, *date); err != nil {
			return fmt.Errorf("date %q: %w", *date, core.ErrInvalidDate)
		}
	}
	if *notes != "" {
		t.Notes = *notes
	}

	if err := a.txs.Edit(ctx, *t); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated #%d\n", t.ID)
	return nil
}

func (a *App) txDelete(ctx context.Context, args []string) error {
	id, err := positionalID(args)
	if err != nil {
		return err
	}
	if err := a.txs.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted #%d\n", id)
	return nil
}

func (a *App) txSearch(ctx context.Context, userID int64, args []string) error {
	fs := flag.NewFlagSet("tx search", flag.ContinueOnError)
	text := fs.String("text", "", "match merchant, description or notes")
	category := fs.String("category", "", "exact category")
	account := fs.String("account", "", "account name")
	typ := fs.String("type", "", "expense, income or transfer")
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD)")
	min := fs.String("min", "", "minimum amount")
	max := fs.String("max", "", "maximum amount")
	limit := fs.Int("limit", 50, "maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := storage.TxFilter{
		SearchText: *text,
		Category:   *category,
		Type:       core.TransactionType(*typ),
		Limit:      *limit,
	}
	var err error
	if *account != "" {
		acc, aerr := a.accounts.GetByName(ctx, userID, *account)
		if aerr != nil {
			return fmt.Errorf("account %q: %w", *account, aerr)
		}
		f.AccountID = acc.ID
	}
	if *from != "" {
		if f.StartDate, err = time.Parse(dateLayout, *from); err != nil {
			return fmt.Errorf("from %q: %w", *from, core.ErrInvalidDate)
		}
	}
	if *to != "" {
		if f.EndDate, err = time.Parse(dateLayout, *to); err != nil {
			return fmt.Errorf("to %q: %w", *to, core.ErrInvalidDate)
		}
	}
	if *min != "" {
		if f.MinAmount, err = core.ParseAmount(*min); err != nil {
			return err
		}
	}
	if *max != "" {
		if f.MaxAmount, err = core.ParseAmount(*max); err != nil {
			return err
		}
	}

	txs, err := a.txs.Search(ctx, userID, f)
	if err != nil {
		return err
	}
	return a.printTransactions(txs)
}

func (a *App) runTransfer(ctx context.Context, args []string) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
	from := fs.String("from", "", "source account (required)")
	to := fs.String("to", "", "destination account (required)")
	amount := fs.String("amount", "", "amount (required)")
	date := fs.String("date", "", "transfer date (YYYY-MM-DD), default today")
	description := fs.String("description", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" || *to == "" || *amount == "" {
		return fmt.Errorf("--from, --to and --amount are required")
	}

	amt, err := core.ParseAmount(*amount)
	if err != nil {
		return err
	}
	var when time.Time
	if *date != "" {
		if when, err = time.Parse(dateLayout, *date); err != nil {
			return fmt.Errorf("date %q: %w", *date, core.ErrInvalidDate)
		}
	}

	outID, inID, err := a.txs.Transfer(ctx, sess.UserID, *from, *to, amt, when, *description)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Transferred %s from %s to %s (#%d/#%d)\n",
		core.FormatAmount(amt), *from, *to, outID, inID)
	return nil
}

func (a *App) printTransactions(txs []core.Transaction) error {
	w := a.table()
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tMERCHANT\tCATEGORY")
	for _, t := range txs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date.Format(dateLayout), t.Type,
			core.FormatAmount(t.SignedAmount()), t.Merchant, t.Category)
	}
	return w.Flush()
}

func positionalID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one argument: transaction id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", args[0], core.ErrNotFound)
	}
	return id, nil
}
