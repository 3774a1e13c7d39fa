package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/danielgermany/penny-cli/internal/core"
)

func (a *App) runRecurring(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny recurring detect|list|add|show|pause|resume|cancel|delete|upcoming")
	}
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "detect":
		candidates, err := a.recurring.DetectPatterns(ctx, sess.UserID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			fmt.Fprintln(a.out, "No recurring patterns found")
			return nil
		}
		return a.printCharges(candidates)

	case "list":
		fs := flag.NewFlagSet("recurring list", flag.ContinueOnError)
		status := fs.String("status", "", "filter: active, paused or cancelled")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		charges, err := a.recurring.List(ctx, sess.UserID, core.ChargeStatus(*status))
		if err != nil {
			return err
		}
		return a.printCharges(charges)

	case "add":
		fs := flag.NewFlagSet("recurring add", flag.ContinueOnError)
		merchant := fs.String("merchant", "", "merchant (required)")
		amount := fs.String("amount", "", "typical amount (required)")
		frequency := fs.String("frequency", "monthly", "weekly, monthly or annual")
		day := fs.Int("day", 1, "weekday 0-6 for weekly, day of month otherwise")
		category := fs.String("category", "", "expense category")
		notes := fs.String("notes", "", "free-form notes")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *merchant == "" || *amount == "" {
			return fmt.Errorf("--merchant and --amount are required")
		}
		amt, err := core.ParseAmount(*amount)
		if err != nil {
			return err
		}
		id, err := a.recurring.Add(ctx, core.RecurringCharge{
			UserID:        sess.UserID,
			Merchant:      *merchant,
			Category:      *category,
			TypicalAmount: amt,
			Frequency:     core.Frequency(*frequency),
			DayOfPeriod:   *day,
			Notes:         *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added recurring charge #%d\n", id)
		return nil

	case "show":
		id, err := positionalID(args[1:])
		if err != nil {
			return err
		}
		rc, err := a.recurring.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "#%d %s (%s)\n", rc.ID, rc.Merchant, rc.Status)
		fmt.Fprintf(a.out, "Typical amount: %s %s\n", core.FormatAmount(rc.TypicalAmount), rc.Frequency)
		fmt.Fprintf(a.out, "Category: %s\n", rc.Category)
		if !rc.NextExpected.IsZero() {
			fmt.Fprintf(a.out, "Next expected: %s\n", rc.NextExpected.Format(dateLayout))
		}
		fmt.Fprintf(a.out, "Seen %d times, confidence %.2f\n", rc.OccurrenceCount, rc.Confidence)
		return nil

	case "pause", "resume", "cancel", "delete":
		id, err := positionalID(args[1:])
		if err != nil {
			return err
		}
		switch args[0] {
		case "pause":
			err = a.recurring.Pause(ctx, id)
		case "resume":
			err = a.recurring.Resume(ctx, id)
		case "cancel":
			err = a.recurring.Cancel(ctx, id)
		case "delete":
			err = a.recurring.Delete(ctx, id)
		}
		if err != nil {
			return err
		}
		past := map[string]string{
			"pause": "Paused", "resume": "Resumed", "cancel": "Cancelled", "delete": "Deleted",
		}
		fmt.Fprintf(a.out, "%s #%d\n", past[args[0]], id)
		return nil

	case "upcoming":
		fs := flag.NewFlagSet("recurring upcoming", flag.ContinueOnError)
		days := fs.Int("days", a.cfg.LookaheadDays, "lookahead window in days")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		charges, err := a.recurring.Upcoming(ctx, sess.UserID, *days)
		if err != nil {
			return err
		}
		if len(charges) == 0 {
			fmt.Fprintf(a.out, "Nothing due in the next %d days\n", *days)
			return nil
		}
		return a.printCharges(charges)

	default:
		return fmt.Errorf("unknown recurring subcommand %q", args[0])
	}
}

func (a *App) printCharges(charges []core.RecurringCharge) error {
	w := a.table()
	fmt.Fprintln(w, "ID\tMERCHANT\tCATEGORY\tAMOUNT\tFREQ\tNEXT\tCONF\tSTATUS")
	for _, rc := range charges {
		next := ""
		if !rc.NextExpected.IsZero() {
			next = rc.NextExpected.Format(dateLayout)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			rc.ID, rc.Merchant, rc.Category, core.FormatAmount(rc.TypicalAmount),
			rc.Frequency, next, rc.Confidence, rc.Status)
	}
	return w.Flush()
}
