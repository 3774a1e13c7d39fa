package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
)

func (a *App) runAccount(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny account add|list|show|balance|delete")
	}
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("account add", flag.ContinueOnError)
		name := fs.String("name", "", "account name (required)")
		typ := fs.String("type", "checking", "one of: "+strings.Join(core.AccountTypes(), ", "))
		institution := fs.String("institution", "", "bank or provider")
		balance := fs.String("balance", "0", "opening balance")
		notes := fs.String("notes", "", "free-form notes")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *name == "" {
			return fmt.Errorf("--name is required")
		}
		opening := decimal.Zero
		if *balance != "" {
			opening, err = core.ParseSignedAmount(*balance)
			if err != nil {
				return fmt.Errorf("opening balance %q: %w", *balance, core.ErrInvalidAmount)
			}
		}

		id, err := a.accounts.Create(ctx, core.Account{
			UserID:      sess.UserID,
			Name:        *name,
			Type:        *typ,
			Institution: *institution,
			Balance:     opening,
			Notes:       *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created account %s (id %d)\n", *name, id)
		return nil

	case "list":
		fs := flag.NewFlagSet("account list", flag.ContinueOnError)
		all := fs.Bool("all", false, "include deactivated accounts")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		accounts, err := a.accounts.List(ctx, sess.UserID, *all)
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "NAME\tTYPE\tINSTITUTION\tBALANCE\tACTIVE")
		for _, acc := range accounts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
				acc.Name, acc.Type, acc.Institution, core.FormatAmount(acc.Balance), acc.IsActive)
		}
		return w.Flush()

	case "show":
		name, err := positional(args[1:], "account name")
		if err != nil {
			return err
		}
		acc, err := a.accounts.GetByName(ctx, sess.UserID, name)
		if err != nil {
			return err
		}
		n, err := a.repo.CountAccountTransactions(ctx, acc.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s (%s)\n", acc.Name, acc.Type)
		if acc.Institution != "" {
			fmt.Fprintf(a.out, "Institution: %s\n", acc.Institution)
		}
		fmt.Fprintf(a.out, "Balance: %s\nTransactions: %d\nActive: %v\n",
			core.FormatAmount(acc.Balance), n, acc.IsActive)
		return nil

	case "balance":
		fs := flag.NewFlagSet("account balance", flag.ContinueOnError)
		name := fs.String("name", "", "account name (required)")
		set := fs.String("set", "", "reconcile to this balance")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *name == "" {
			return fmt.Errorf("--name is required")
		}
		if *set == "" {
			acc, err := a.accounts.GetByName(ctx, sess.UserID, *name)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s\n", core.FormatAmount(acc.Balance))
			return nil
		}
		amount, err := core.ParseSignedAmount(*set)
		if err != nil {
			return fmt.Errorf("balance %q: %w", *set, core.ErrInvalidAmount)
		}
		if err := a.accounts.SetBalance(ctx, sess.UserID, *name, amount); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Set %s balance to %s\n", *name, core.FormatAmount(amount))
		return nil

	case "delete":
		fs := flag.NewFlagSet("account delete", flag.ContinueOnError)
		name := fs.String("name", "", "account name (required)")
		soft := fs.Bool("soft", false, "deactivate instead of removing")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *name == "" {
			return fmt.Errorf("--name is required")
		}
		if err := a.accounts.Delete(ctx, sess.UserID, *name, *soft); err != nil {
			return err
		}
		if *soft {
			fmt.Fprintf(a.out, "Deactivated account %s\n", *name)
		} else {
			fmt.Fprintf(a.out, "Deleted account %s\n", *name)
		}
		return nil

	default:
		return fmt.Errorf("unknown account subcommand %q", args[0])
	}
}

// positional returns the single expected positional argument.
func positional(args []string, what string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("expected exactly one argument: %s", what)
	}
	return args[0], nil
}
