package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"safespend/internal/config"
	"safespend/internal/core"
	applog "safespend/internal/log"
	"safespend/internal/worker"
)

// Globals defines global flags available to all commands.
type Globals struct {
	DataFile string `help:"Path of the snapshot data file." env:"DATA_FILE" default:"./data/financial_data.csv" type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)." env:"LOG_LEVEL" default:"warn"`
}

// Commands is the command tree of safespend-cli.
type Commands struct {
	Globals

	History   HistoryCmd   `cmd:"" help:"Show all saved months, oldest first."`
	Save      SaveCmd      `cmd:"" help:"Save the figures of one month."`
	Reset     ResetCmd     `cmd:"" help:"Delete all saved months."`
	Advise    AdviseCmd    `cmd:"" help:"Get an AI financial plan for your figures and goal."`
	SyncSheet SyncSheetCmd `cmd:"" name:"sync-sheet" help:"Rewrite the Google Sheets mirror from the data file."`
}

// AmountFlags are the four monthly figures.
type AmountFlags struct {
	Income   string `help:"Monthly income ($)." default:"0"`
	Expenses string `help:"Total monthly expenses ($)." default:"0"`
	Savings  string `help:"Current savings ($)." default:"0"`
	Debt     string `help:"Total debt ($)." default:"0"`
}

// Amounts parses the flags into domain amounts.
func (f AmountFlags) Amounts() (core.Amounts, error) {
	var a core.Amounts
	fields := []struct {
		flag   string
		raw    string
		target *decimal.Decimal
	}{
		{"--income", f.Income, &a.Income},
		{"--expenses", f.Expenses, &a.Expenses},
		{"--savings", f.Savings, &a.Savings},
		{"--debt", f.Debt, &a.DebtRepayment},
	}
	for _, field := range fields {
		d, err := core.ParseAmount(field.raw)
		if err != nil {
			return core.Amounts{}, fmt.Errorf("%s: %w", field.flag, err)
		}
		*field.target = d
	}
	return a, nil
}

func (g *Globals) config() *config.Config {
	cfg := config.Load()
	cfg.DataFile = g.DataFile
	cfg.LogLevel = g.LogLevel
	return cfg
}

func (g *Globals) open(ctx context.Context, kctx *kong.Context) (*Session, *applog.Logger, error) {
	cfg := g.config()
	logger := SetupLogger(cfg.LogLevel, kctx.Stderr).WithComponent(applog.ComponentCLI)
	sess, err := NewSession(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.LoadError(); err != nil {
		printWarning(kctx.Stderr, "Saved data could not be read: "+err.Error())
	}
	return sess, logger, nil
}

type HistoryCmd struct {
	JSON bool `help:"Print the snapshots as JSON."`
}

type historyRow struct {
	Month         string `json:"month"`
	Income        string `json:"income"`
	Expenses      string `json:"expenses"`
	Savings       string `json:"savings"`
	DebtRepayment string `json:"debt_repayment"`
}

func (cmd *HistoryCmd) Run(kctx *kong.Context, globals *Globals) error {
	sess, _, err := globals.open(context.Background(), kctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	snaps := sess.History()
	if cmd.JSON {
		rows := make([]historyRow, 0, len(snaps))
		for _, s := range snaps {
			rows = append(rows, historyRow{
				Month:         s.Month.String(),
				Income:        s.Income.String(),
				Expenses:      s.Expenses.String(),
				Savings:       s.Savings.String(),
				DebtRepayment: s.DebtRepayment.String(),
			})
		}
		enc := json.NewEncoder(kctx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(snaps) == 0 {
		printInfof(kctx.Stdout, "No financial data available. Please enter and save your financial details.")
		return nil
	}
	_, _ = fmt.Fprintln(kctx.Stdout, renderHistory(snaps))
	return nil
}

type SaveCmd struct {
	Month string `help:"Month as YYYY-MM (default: current month)."`
	AmountFlags
}

func (cmd *SaveCmd) Run(kctx *kong.Context, globals *Globals) error {
	amounts, err := cmd.Amounts()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, _, err := globals.open(ctx, kctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var (
		month    core.Month
		accepted bool
	)
	if strings.TrimSpace(cmd.Month) == "" {
		month, accepted, err = sess.SaveCurrentMonth(ctx, amounts)
	} else {
		month, err = core.ParseMonth(cmd.Month)
		if err != nil {
			return fmt.Errorf("--month: %w", err)
		}
		accepted, err = sess.SaveSnapshot(ctx, month, amounts)
	}
	if err != nil {
		return err
	}

	if !accepted {
		printWarning(kctx.Stderr, fmt.Sprintf("Data for %s already exists.", month.Label()))
		return nil
	}
	printSuccess(kctx.Stdout, fmt.Sprintf("Data for %s saved successfully!", month.Label()))
	return nil
}

type ResetCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

// ErrResetNotConfirmed is returned when a reset was neither confirmed nor forced.
var ErrResetNotConfirmed = errors.New("reset not confirmed (use --yes to skip the prompt)")

func (cmd *ResetCmd) Run(kctx *kong.Context, globals *Globals) error {
	if !cmd.Yes {
		ok, err := promptYesNo("Delete all saved months?")
		if err != nil {
			return err
		}
		if !ok {
			return ErrResetNotConfirmed
		}
	}

	ctx := context.Background()
	sess, _, err := globals.open(ctx, kctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.ResetAll(ctx); err != nil {
		return err
	}
	printSuccess(kctx.Stdout, "Data has been reset.")
	return nil
}

type AdviseCmd struct {
	Goal string `help:"Your financial goal, e.g. \"Save for a down payment on a house\"." required:""`
	AmountFlags
}

func (cmd *AdviseCmd) Run(kctx *kong.Context, globals *Globals) error {
	amounts, err := cmd.Amounts()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, _, err := globals.open(ctx, kctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	plan, err := sess.RequestAdvice(ctx, core.AdviceRequest{Amounts: amounts, Goal: cmd.Goal})
	var svcErr *core.ServiceError
	switch {
	case errors.Is(err, core.ErrEmptyGoal):
		printWarning(kctx.Stderr, "Please enter your financial goal to receive advice.")
		return err
	case errors.As(err, &svcErr):
		printError(kctx.Stderr, "Something went wrong with the AI service:")
		_, _ = fmt.Fprintln(kctx.Stderr, svcErr.Error())
		return err
	case err != nil:
		return err
	}

	_, _ = fmt.Fprintln(kctx.Stdout, headerStyle.Render("Your SafeSpend Financial Plan:"))
	_, _ = fmt.Fprintln(kctx.Stdout, plan)
	return nil
}

type SyncSheetCmd struct{}

func (cmd *SyncSheetCmd) Run(kctx *kong.Context, globals *Globals) error {
	ctx := context.Background()
	cfg := globals.config()
	logger := SetupLogger(cfg.LogLevel, kctx.Stderr).WithComponent(applog.ComponentCLI)

	store := NewStore(cfg, logger)
	snaps, err := store.LoadReadOnly(ctx)
	if err != nil {
		return err
	}
	mirror, err := NewMirror(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := worker.NewMirrorWorker(mirror, logger.Slog()).Resync(ctx, snaps); err != nil {
		return err
	}
	printSuccess(kctx.Stdout, fmt.Sprintf("Mirrored %d months to sheet %q.", len(snaps), cfg.GoogleSheetName))
	return nil
}

// Exit codes of safespend-cli.
const (
	ExitOK    = 0
	ExitError = 1
)

// ReportError prints err the way the commands print their own messages.
func ReportError(kctx *kong.Context, err error) int {
	if err == nil {
		return ExitOK
	}
	printError(kctx.Stderr, err.Error())
	return ExitError
}
