package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/danielgermany/penny-cli/internal/config"
	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/services"
	"github.com/danielgermany/penny-cli/internal/session"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// App wires the services behind the command surface. Commands receive an
// explicit session; nothing here is global.
type App struct {
	cfg      *config.Config
	repo     *storage.SQLiteRepository
	sessions *session.Store
	out      io.Writer

	users      *services.UserService
	accounts   *services.AccountService
	txs        *services.TransactionService
	budgets    *services.BudgetService
	recurring  *services.RecurringService
	goals      *services.GoalService
	purchases  *services.PurchaseService
	reports    *services.ReportService
	decisions  *services.DecisionService
	categorize *services.CategorizationService
	csv        *services.CSVService
}

// NewApp assembles the application. assistant and adviser may be nil; the
// pipeline then runs on rules and the heuristic parser alone.
func NewApp(cfg *config.Config, repo *storage.SQLiteRepository, assistant services.Assistant, adviser services.Adviser, out io.Writer) *App {
	categorize := services.NewCategorizationService(repo, assistant)
	budgets := services.NewBudgetService(repo)
	return &App{
		cfg:      cfg,
		repo:     repo,
		sessions: session.NewStore(cfg.SessionFile),
		out:      out,

		users:    services.NewUserService(repo),
		accounts: services.NewAccountService(repo),
		txs:      services.NewTransactionService(repo, categorize),
		budgets:  budgets,
		recurring: services.NewRecurringService(repo, services.DetectorOptions{
			MinOccurrences: cfg.MinOccurrences,
			AmountSwing:    cfg.AmountSwing,
		}),
		goals:      services.NewGoalService(repo),
		purchases:  services.NewPurchaseService(repo),
		reports:    services.NewReportService(repo),
		decisions:  services.NewDecisionService(repo, budgets, adviser, cfg.LookaheadDays),
		categorize: categorize,
		csv:        services.NewCSVService(repo),
	}
}

// Run dispatches one invocation. It returns an error for the caller to
// report; usage problems print help and return a non-nil error as well.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return fmt.Errorf("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		return a.runInit(ctx)
	case "user":
		return a.runUser(ctx, rest)
	case "login":
		return a.runLogin(ctx, rest)
	case "logout":
		return a.runLogout(ctx)
	case "whoami":
		return a.runWhoami(ctx)
	case "account":
		return a.runAccount(ctx, rest)
	case "tx":
		return a.runTx(ctx, rest)
	case "transfer":
		return a.runTransfer(ctx, rest)
	case "budget":
		return a.runBudget(ctx, rest)
	case "category":
		return a.runCategory(ctx, rest)
	case "recurring":
		return a.runRecurring(ctx, rest)
	case "goal":
		return a.runGoal(ctx, rest)
	case "purchase":
		return a.runPurchase(ctx, rest)
	case "tag":
		return a.runTag(ctx, rest)
	case "report":
		return a.runReport(ctx, rest)
	case "check":
		return a.runCheck(ctx, rest)
	case "export":
		return a.runExport(ctx, rest)
	case "import":
		return a.runImport(ctx, rest)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "penny - personal finance from the command line")
	fmt.Fprintln(a.out, "\nUsage:")
	fmt.Fprintln(a.out, "  penny <command> [subcommand] [options]")
	fmt.Fprintln(a.out, "\nCommands:")
	fmt.Fprintln(a.out, "  init        Create the database")
	fmt.Fprintln(a.out, "  user        Manage users (create, list, deactivate)")
	fmt.Fprintln(a.out, "  login       Start a session")
	fmt.Fprintln(a.out, "  logout      End the session")
	fmt.Fprintln(a.out, "  whoami      Show the logged-in user")
	fmt.Fprintln(a.out, "  account     Manage accounts (add, list, show, balance, delete)")
	fmt.Fprintln(a.out, "  tx          Record and query transactions (log, add, list, show, edit, delete, search)")
	fmt.Fprintln(a.out, "  transfer    Move money between accounts")
	fmt.Fprintln(a.out, "  budget      Monthly category limits (set, list, status, delete)")
	fmt.Fprintln(a.out, "  category    Merchant categorization rules (rules, set, delete)")
	fmt.Fprintln(a.out, "  recurring   Recurring charges (detect, list, add, show, pause, resume, cancel, delete, upcoming)")
	fmt.Fprintln(a.out, "  goal        Savings goals (add, list, show, contribute, withdraw, status, pause, resume, delete)")
	fmt.Fprintln(a.out, "  purchase    Planned purchases (add, list, show, bought, cancel, delete)")
	fmt.Fprintln(a.out, "  tag         Transaction tags (add, list, delete, attach, detach, show)")
	fmt.Fprintln(a.out, "  report      Summaries and analyses (month, compare, category, trends, accounts, top)")
	fmt.Fprintln(a.out, "  check       Ask whether a purchase is affordable")
	fmt.Fprintln(a.out, "  export      Write transactions to CSV")
	fmt.Fprintln(a.out, "  import      Read transactions from CSV")
	fmt.Fprintln(a.out, "\nRun 'penny <command> -h' for details on a command.")
}

func (a *App) runInit(ctx context.Context) error {
	// Opening the repository already created the schema.
	fmt.Fprintf(a.out, "Database ready at %s\n", a.cfg.DBPath)
	fmt.Fprintln(a.out, "Create a user with 'penny user create' and log in with 'penny login'.")
	return nil
}

// requireSession resolves the logged-in user or fails the command.
func (a *App) requireSession(ctx context.Context) (*session.Session, error) {
	sess, err := a.sessions.Load(ctx, a.repo)
	if err != nil {
		if errors.Is(err, core.ErrNoSession) {
			return nil, fmt.Errorf("log in first with 'penny login': %w", err)
		}
		return nil, err
	}
	return sess, nil
}

// table starts a tabwriter for aligned command output.
func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

