package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/danielgermany/penny-cli/internal/core"
)

func (a *App) runBudget(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny budget set|list|status|delete")
	}
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "set":
		fs := flag.NewFlagSet("budget set", flag.ContinueOnError)
		category := fs.String("category", "", "expense category (required)")
		limit := fs.String("limit", "", "monthly limit (required)")
		threshold := fs.Float64("threshold", 0, "alert fraction of the limit, e.g. 0.8")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *category == "" || *limit == "" {
			return fmt.Errorf("--category and --limit are required")
		}
		amount, err := core.ParseAmount(*limit)
		if err != nil {
			return err
		}
		err = a.budgets.Set(ctx, core.Budget{
			UserID:         sess.UserID,
			Category:       *category,
			MonthlyLimit:   amount,
			AlertThreshold: *threshold,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Budget for %s set to %s/month\n", *category, core.FormatAmount(amount))
		return nil

	case "list":
		budgets, err := a.budgets.List(ctx, sess.UserID)
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "CATEGORY\tLIMIT\tALERT AT")
		for _, b := range budgets {
			fmt.Fprintf(w, "%s\t%s\t%.0f%%\n",
				b.Category, core.FormatAmount(b.MonthlyLimit), b.AlertThreshold*100)
		}
		return w.Flush()

	case "status":
		fs := flag.NewFlagSet("budget status", flag.ContinueOnError)
		month := fs.String("month", "", "calendar month (YYYY-MM), default current")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		year, m, err := parseMonth(*month)
		if err != nil {
			return err
		}
		statuses, err := a.budgets.Status(ctx, sess.UserID, year, m)
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "CATEGORY\tSPENT\tLIMIT\tREMAINING\tUSED\tSTATE")
		for _, st := range statuses {
			marker := ""
			if st.Alert {
				marker = " !"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s%s\n",
				st.Category, core.FormatAmount(st.Spent), core.FormatAmount(st.Limit),
				core.FormatAmount(st.Remaining), st.Percent, st.State, marker)
		}
		return w.Flush()

	case "delete":
		category, err := positional(args[1:], "category")
		if err != nil {
			return err
		}
		if err := a.budgets.Delete(ctx, sess.UserID, category); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted budget for %s\n", category)
		return nil

	default:
		return fmt.Errorf("unknown budget subcommand %q", args[0])
	}
}

func (a *App) runCategory(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny category rules|set|delete")
	}
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "rules":
		rules, err := a.repo.ListCategoryRules(ctx, sess.UserID)
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "MERCHANT KEY\tCATEGORY\tSOURCE\tUSES\tCONFIDENCE")
		for _, r := range rules {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\n",
				r.MerchantKey, r.Category, r.Source, r.UseCount, r.Confidence)
		}
		return w.Flush()

	case "set":
		fs := flag.NewFlagSet("category set", flag.ContinueOnError)
		merchant := fs.String("merchant", "", "merchant name (required)")
		category := fs.String("category", "", "category to assign (required)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *merchant == "" || *category == "" {
			return fmt.Errorf("--merchant and --category are required")
		}
		if err := a.categorize.Learn(ctx, sess.UserID, *merchant, *category, "manual", 1.0); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Rule saved: %s -> %s\n", core.MerchantKey(*merchant), *category)
		return nil

	case "delete":
		merchant, err := positional(args[1:], "merchant")
		if err != nil {
			return err
		}
		key := core.MerchantKey(merchant)
		if err := a.repo.DeleteCategoryRule(ctx, sess.UserID, key); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted rule for %s\n", key)
		return nil

	default:
		return fmt.Errorf("unknown category subcommand %q", args[0])
	}
}

// parseMonth reads YYYY-MM, defaulting to the current month.
func parseMonth(s string) (int, time.Month, error) {
	if s == "" {
		now := time.Now()
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("month %q: %w", s, core.ErrInvalidDate)
	}
	return t.Year(), t.Month(), nil
}
