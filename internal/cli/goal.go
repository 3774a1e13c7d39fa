package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/danielgermany/penny-cli/internal/core"
)

func (a *App) runGoal(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny goal add|list|show|contribute|withdraw|status|pause|resume|delete")
	}
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("goal add", flag.ContinueOnError)
		name := fs.String("name", "", "goal name (required)")
		target := fs.String("target", "", "target amount (required)")
		deadline := fs.String("deadline", "", "deadline (YYYY-MM-DD), optional")
		priority := fs.Int("priority", 5, "1 (low) to 10 (high)")
		category := fs.String("category", "", "related category")
		description := fs.String("description", "", "what this goal is for")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *name == "" || *target == "" {
			return fmt.Errorf("--name and --target are required")
		}
		amount, err := core.ParseAmount(*target)
		if err != nil {
			return err
		}
		g := core.SavingsGoal{
			UserID:       sess.UserID,
			Name:         *name,
			Description:  *description,
			TargetAmount: amount,
			Category:     *category,
			Priority:     *priority,
		}
		if *deadline != "" {
			if g.Deadline, err = time.Parse(dateLayout, *deadline); err != nil {
				return fmt.Errorf("deadline %q: %w", *deadline, core.ErrInvalidDate)
			}
		}
		id, err := a.goals.Create(ctx, g)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created goal %s (id %d)\n", *name, id)
		return nil

	case "list":
		fs := flag.NewFlagSet("goal list", flag.ContinueOnError)
		status := fs.String("status", "", "filter: active, completed, paused or cancelled")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		goals, err := a.goals.List(ctx, sess.UserID, core.GoalStatus(*status))
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "NAME\tSAVED\tTARGET\tDEADLINE\tPRIORITY\tSTATUS")
		for _, g := range goals {
			deadline := ""
			if !g.Deadline.IsZero() {
				deadline = g.Deadline.Format(dateLayout)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				g.Name, core.FormatAmount(g.CurrentAmount), core.FormatAmount(g.TargetAmount),
				deadline, g.Priority, g.Status)
		}
		return w.Flush()

	case "show", "status":
		name, err := positional(args[1:], "goal name")
		if err != nil {
			return err
		}
		p, err := a.goals.Progress(ctx, sess.UserID, name)
		if err != nil {
			return err
		}
		g := p.Goal
		fmt.Fprintf(a.out, "%s (%s)\n", g.Name, g.Status)
		if g.Description != "" {
			fmt.Fprintln(a.out, g.Description)
		}
		fmt.Fprintf(a.out, "Saved: %s of %s (%.1f%%)\n",
			core.FormatAmount(g.CurrentAmount), core.FormatAmount(g.TargetAmount), p.Percent)
		if !g.Deadline.IsZero() {
			fmt.Fprintf(a.out, "Deadline: %s\n", g.Deadline.Format(dateLayout))
		}
		if p.MonthlyRequired.Sign() > 0 {
			fmt.Fprintf(a.out, "Required pace: %s/month\n", core.FormatAmount(p.MonthlyRequired))
		}
		return nil

	case "contribute", "withdraw":
		fs := flag.NewFlagSet("goal "+args[0], flag.ContinueOnError)
		name := fs.String("name", "", "goal name (required)")
		amount := fs.String("amount", "", "amount (required)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *name == "" || *amount == "" {
			return fmt.Errorf("--name and --amount are required")
		}
		amt, err := core.ParseAmount(*amount)
		if err != nil {
			return err
		}
		var g *core.SavingsGoal
		if args[0] == "contribute" {
			g, err = a.goals.Contribute(ctx, sess.UserID, *name, amt)
		} else {
			g, err = a.goals.Withdraw(ctx, sess.UserID, *name, amt)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s now at %s of %s\n",
			g.Name, core.FormatAmount(g.CurrentAmount), core.FormatAmount(g.TargetAmount))
		if g.Status == core.GoalCompleted {
			fmt.Fprintf(a.out, "Goal %s is complete\n", g.Name)
		}
		return nil

	case "pause", "resume":
		name, err := positional(args[1:], "goal name")
		if err != nil {
			return err
		}
		status := core.GoalPaused
		if args[0] == "resume" {
			status = core.GoalActive
		}
		if err := a.goals.SetStatus(ctx, sess.UserID, name, status); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Goal %s is now %s\n", name, status)
		return nil

	case "delete":
		name, err := positional(args[1:], "goal name")
		if err != nil {
			return err
		}
		if err := a.goals.Delete(ctx, sess.UserID, name); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted goal %s\n", name)
		return nil

	default:
		return fmt.Errorf("unknown goal subcommand %q", args[0])
	}
}

func (a *App) runPurchase(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny purchase add|list|show|bought|cancel|delete")
	}
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("purchase add", flag.ContinueOnError)
		name := fs.String("name", "", "what to buy (required)")
		cost := fs.String("cost", "", "estimated cost (required)")
		priority := fs.Int("priority", 3, "1 (critical) to 5 (want)")
		category := fs.String("category", "", "expense category")
		deadline := fs.String("deadline", "", "needed by (YYYY-MM-DD)")
		url := fs.String("url", "", "product link")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *name == "" || *cost == "" {
			return fmt.Errorf("--name and --cost are required")
		}
		amount, err := core.ParseAmount(*cost)
		if err != nil {
			return err
		}
		p := core.PlannedPurchase{
			UserID:        sess.UserID,
			Name:          *name,
			EstimatedCost: amount,
			Priority:      *priority,
			Category:      *category,
			URL:           *url,
		}
		if *deadline != "" {
			if p.Deadline, err = time.Parse(dateLayout, *deadline); err != nil {
				return fmt.Errorf("deadline %q: %w", *deadline, core.ErrInvalidDate)
			}
		}
		id, err := a.purchases.Add(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Planned %s (id %d)\n", *name, id)
		return nil

	case "list":
		ranked, err := a.purchases.Rank(ctx, sess.UserID)
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "ID\tNAME\tCOST\tPRIORITY\tCUMULATIVE\tAFFORDABLE")
		for _, r := range ranked {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%v\n",
				r.Purchase.ID, r.Purchase.Name, core.FormatAmount(r.Purchase.EstimatedCost),
				r.Purchase.Priority, core.FormatAmount(r.Cumulative), r.Affordable)
		}
		return w.Flush()

	case "show":
		id, err := positionalID(args[1:])
		if err != nil {
			return err
		}
		p, err := a.purchases.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "#%d %s (%s)\n", p.ID, p.Name, p.Status)
		fmt.Fprintf(a.out, "Estimated cost: %s, priority %d\n",
			core.FormatAmount(p.EstimatedCost), p.Priority)
		if !p.Deadline.IsZero() {
			fmt.Fprintf(a.out, "Needed by: %s\n", p.Deadline.Format(dateLayout))
		}
		if p.URL != "" {
			fmt.Fprintf(a.out, "Link: %s\n", p.URL)
		}
		return nil

	case "bought", "cancel", "delete":
		id, err := positionalID(args[1:])
		if err != nil {
			return err
		}
		switch args[0] {
		case "bought":
			err = a.purchases.MarkPurchased(ctx, id)
		case "cancel":
			err = a.purchases.Cancel(ctx, id)
		case "delete":
			err = a.purchases.Delete(ctx, id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Updated #%d\n", id)
		return nil

	default:
		return fmt.Errorf("unknown purchase subcommand %q", args[0])
	}
}
