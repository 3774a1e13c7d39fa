package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/services"
)

func (a *App) runReport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny report month|compare|category|trends|accounts|top")
	}
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "month":
		fs := flag.NewFlagSet("report month", flag.ContinueOnError)
		month := fs.String("month", "", "calendar month (YYYY-MM), default current")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		year, m, err := parseMonth(*month)
		if err != nil {
			return err
		}
		summary, err := a.reports.MonthlySummary(ctx, sess.UserID, year, m)
		if err != nil {
			return err
		}
		a.printSummary(summary)
		return nil

	case "compare":
		fs := flag.NewFlagSet("report compare", flag.ContinueOnError)
		before := fs.String("before", "", "earlier month (YYYY-MM, required)")
		after := fs.String("after", "", "later month (YYYY-MM), default current")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *before == "" {
			return fmt.Errorf("--before is required")
		}
		by, bm, err := parseMonth(*before)
		if err != nil {
			return err
		}
		ay, am, err := parseMonth(*after)
		if err != nil {
			return err
		}
		cmp, err := a.reports.Compare(ctx, sess.UserID, by, bm, ay, am)
		if err != nil {
			return err
		}

		w := a.table()
		fmt.Fprintf(w, "\t%d-%02d\t%d-%02d\tCHANGE\n", by, bm, ay, am)
		fmt.Fprintf(w, "Income\t%s\t%s\t%s\n",
			core.FormatAmount(cmp.Before.Income), core.FormatAmount(cmp.After.Income),
			core.FormatAmount(cmp.IncomeDelta))
		fmt.Fprintf(w, "Expenses\t%s\t%s\t%s\n",
			core.FormatAmount(cmp.Before.Expenses), core.FormatAmount(cmp.After.Expenses),
			core.FormatAmount(cmp.ExpensesDelta))
		fmt.Fprintf(w, "Net\t%s\t%s\t%s\n",
			core.FormatAmount(cmp.Before.Net), core.FormatAmount(cmp.After.Net),
			core.FormatAmount(cmp.NetDelta))
		return w.Flush()

	case "category":
		fs := flag.NewFlagSet("report category", flag.ContinueOnError)
		months := fs.Int("months", 6, "number of months to analyze")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		category := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if category == "" {
			return fmt.Errorf("usage: penny report category <name> [--months N]")
		}
		analysis, err := a.reports.CategoryAnalysis(ctx, sess.UserID, category, *months)
		if err != nil {
			return err
		}
		a.printCategoryAnalysis(analysis)
		return nil

	case "trends":
		fs := flag.NewFlagSet("report trends", flag.ContinueOnError)
		weeks := fs.Int("weeks", 4, "number of weeks to analyze")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		trends, err := a.reports.SpendingTrends(ctx, sess.UserID, *weeks)
		if err != nil {
			return err
		}
		a.printTrends(trends)
		return nil

	case "accounts":
		summary, err := a.reports.AccountSummary(ctx, sess.UserID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Net worth: %s across %d accounts\n\n",
			core.FormatAmount(summary.NetWorth), len(summary.Accounts))
		w := a.table()
		fmt.Fprintln(w, "ACCOUNT\tTYPE\tBALANCE\tINCOME 30D\tEXPENSES 30D\tNET 30D\tTXNS")
		for _, act := range summary.Accounts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
				act.Account.Name, act.Account.Type,
				core.FormatAmount(act.Account.Balance),
				core.FormatAmount(act.Income), core.FormatAmount(act.Expenses),
				core.FormatAmount(act.Net), act.Count)
		}
		return w.Flush()

	case "top":
		fs := flag.NewFlagSet("report top", flag.ContinueOnError)
		days := fs.Int("days", 30, "trailing window in days")
		limit := fs.Int("limit", 10, "number of categories")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		shares, err := a.reports.TopCategories(ctx, sess.UserID, *limit, *days)
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "CATEGORY\tAMOUNT\tSHARE")
		for _, c := range shares {
			fmt.Fprintf(w, "%s\t%s\t%.1f%%\n", c.Category, core.FormatAmount(c.Amount), c.Percent)
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown report subcommand %q", args[0])
	}
}

func (a *App) printCategoryAnalysis(c *services.CategoryAnalysis) {
	fmt.Fprintf(a.out, "%s over the last %d months\n\n", c.Category, c.Months)
	fmt.Fprintf(a.out, "Total spent: %s across %d transactions\n",
		core.FormatAmount(c.Total), c.Count)
	if c.Count > 0 {
		fmt.Fprintf(a.out, "Average %s, smallest %s, largest %s\n",
			core.FormatAmount(c.Average), core.FormatAmount(c.Min), core.FormatAmount(c.Max))
	}
	fmt.Fprintf(a.out, "Trend: %s", c.Trend)
	if c.TrendChange.Sign() != 0 {
		fmt.Fprintf(a.out, " (%s/month)", core.FormatAmount(c.TrendChange))
	}
	fmt.Fprintln(a.out)

	fmt.Fprintln(a.out, "\nBy month:")
	w := a.table()
	for _, m := range c.Monthly {
		fmt.Fprintf(w, "  %d-%02d\t%s\t%d transactions\n",
			m.Year, m.Month, core.FormatAmount(m.Total), m.Count)
	}
	w.Flush()

	if len(c.TopMerchants) > 0 {
		fmt.Fprintln(a.out, "\nTop merchants:")
		w = a.table()
		for _, m := range c.TopMerchants {
			fmt.Fprintf(w, "  %s\t%s\t%.1f%%\n",
				m.Merchant, core.FormatAmount(m.Amount), m.Percent)
		}
		w.Flush()
	}
}

func (a *App) printTrends(t *services.SpendingTrends) {
	fmt.Fprintf(a.out, "Spending over the last %d weeks\n\n", t.Weeks)
	w := a.table()
	fmt.Fprintln(w, "WEEK\tTOTAL\tTXNS\tPER DAY\t")
	for _, week := range t.Weekly {
		marker := ""
		if week.Unusual {
			marker = "!"
		}
		fmt.Fprintf(w, "%s to %s\t%s\t%d\t%s\t%s\n",
			week.Start.Format(dateLayout), week.End.Format(dateLayout),
			core.FormatAmount(week.Total), week.Count,
			core.FormatAmount(week.PerDay), marker)
	}
	w.Flush()
	fmt.Fprintf(a.out, "\nAverage weekly spending: %s\n", core.FormatAmount(t.AvgWeekly))
	unusual := 0
	for _, week := range t.Weekly {
		if week.Unusual {
			unusual++
		}
	}
	if unusual > 0 {
		fmt.Fprintf(a.out, "%d week(s) ran more than 20%% above average\n", unusual)
	}
}

func (a *App) printSummary(s *services.MonthlySummary) {
	fmt.Fprintf(a.out, "Summary for %d-%02d\n\n", s.Year, s.Month)
	fmt.Fprintf(a.out, "Income:   %s\n", core.FormatAmount(s.Income))
	fmt.Fprintf(a.out, "Expenses: %s\n", core.FormatAmount(s.Expenses))
	fmt.Fprintf(a.out, "Net:      %s", core.FormatAmount(s.Net))
	if s.Income.Sign() > 0 {
		fmt.Fprintf(a.out, " (savings rate %.1f%%)", s.SavingsRate)
	}
	fmt.Fprintln(a.out)

	if len(s.Categories) > 0 {
		fmt.Fprintln(a.out, "\nBy category:")
		w := a.table()
		for _, c := range s.Categories {
			fmt.Fprintf(w, "  %s\t%s\t%.1f%%\n", c.Category, core.FormatAmount(c.Amount), c.Percent)
		}
		w.Flush()
	}
	if len(s.TopMerchants) > 0 {
		fmt.Fprintln(a.out, "\nTop merchants:")
		w := a.table()
		for _, m := range s.TopMerchants {
			fmt.Fprintf(w, "  %s\t%s\t%d charges\n", m.Merchant, core.FormatAmount(m.Amount), m.Count)
		}
		w.Flush()
	}
}

// runCheck answers "can I afford X" questions.
func (a *App) runCheck(ctx context.Context, args []string) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: penny check \"can I afford $80 dinner?\"")
	}

	d, err := a.decisions.CanAfford(ctx, sess.UserID, question)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s\n\n%s\n", d.Advice.Verdict, d.Advice.Reasoning)
	if d.Degraded {
		fmt.Fprintln(a.out, "\n(AI adviser unavailable; this is a rule-of-thumb verdict.)")
	}
	return nil
}

func (a *App) runExport(ctx context.Context, args []string) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("out", "", "output file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("--out is required")
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	n, err := a.csv.Export(ctx, f, sess.UserID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d transactions to %s\n", n, *out)
	return nil
}

func (a *App) runImport(ctx context.Context, args []string) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	in := fs.String("in", "", "input file (required)")
	account := fs.String("account", "", "account for rows without one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("--in is required")
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open %s: %w", *in, err)
	}
	defer f.Close()

	report, err := a.csv.Import(ctx, f, sess.UserID, *account)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d transactions\n", report.Imported)
	for _, skip := range report.Skipped {
		fmt.Fprintf(a.out, "  line %d skipped: %v\n", skip.Line, skip.Err)
	}
	return nil
}
