package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
)

func (a *App) runTag(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny tag add|list|delete|attach|detach|show")
	}
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		name, err := positional(args[1:], "tag name")
		if err != nil {
			return err
		}
		id, err := a.repo.CreateTag(ctx, sess.UserID, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created tag %s (id %d)\n", name, id)
		return nil

	case "list":
		tags, err := a.repo.ListTags(ctx, sess.UserID)
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "ID\tNAME")
		for _, tag := range tags {
			fmt.Fprintf(w, "%d\t%s\n", tag.ID, tag.Name)
		}
		return w.Flush()

	case "delete":
		name, err := positional(args[1:], "tag name")
		if err != nil {
			return err
		}
		tag, err := a.repo.GetTagByName(ctx, sess.UserID, name)
		if err != nil {
			return err
		}
		if err := a.repo.DeleteTag(ctx, tag.ID); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted tag %s\n", name)
		return nil

	case "attach", "detach":
		fs := flag.NewFlagSet("tag "+args[0], flag.ContinueOnError)
		name := fs.String("name", "", "tag name (required)")
		tx := fs.String("tx", "", "transaction id (required)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *name == "" || *tx == "" {
			return fmt.Errorf("--name and --tx are required")
		}
		txID, err := strconv.ParseInt(*tx, 10, 64)
		if err != nil {
			return fmt.Errorf("transaction id %q", *tx)
		}
		tag, err := a.repo.GetTagByName(ctx, sess.UserID, *name)
		if err != nil {
			return err
		}
		if args[0] == "attach" {
			err = a.repo.AttachTag(ctx, txID, tag.ID)
		} else {
			err = a.repo.DetachTag(ctx, txID, tag.ID)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Tag %s %sed on #%d\n", *name, args[0], txID)
		return nil

	case "show":
		name, err := positional(args[1:], "tag name")
		if err != nil {
			return err
		}
		tag, err := a.repo.GetTagByName(ctx, sess.UserID, name)
		if err != nil {
			return err
		}
		txs, err := a.repo.ListTransactionsByTag(ctx, tag.ID)
		if err != nil {
			return err
		}
		return a.printTransactions(txs)

	default:
		return fmt.Errorf("unknown tag subcommand %q", args[0])
	}
}
