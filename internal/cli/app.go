package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/dmitrijs2005/cinepos/internal/config"
	"github.com/dmitrijs2005/cinepos/internal/database"
	"github.com/dmitrijs2005/cinepos/internal/logging"
	"github.com/dmitrijs2005/cinepos/internal/services"
)

// logOutput is where the App logs go. Tests may redirect it.
var logOutput io.Writer = os.Stderr

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	seats    *services.SeatService
	products *services.ProductService
	accounts *services.AccountService
	sales    *services.SaleService

	draft *services.Draft

	in       io.Reader
	out      io.Writer
	commands map[string]command
	closers  []func() error
}

// NewApp builds the console from cfg: database, locker, services and
// exporters, then loads the configured feeds.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	log := logging.NewTextLogger(logOutput, cfg.LogLevel)

	db, rm, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{config: cfg, log: log, db: db, in: in, out: out}
	a.closers = append(a.closers, db.Close)

	locker, closeLocker, err := newLocker(ctx, cfg, log)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	if closeLocker != nil {
		a.closers = append(a.closers, closeLocker)
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	opts := []services.Option{
		services.WithLocker(locker),
		services.WithLogger(log),
		services.WithReceiptExporter(exporter),
	}
	a.seats = services.NewSeatService(db, rm, opts...)
	a.products = services.NewProductService(db, rm, opts...)
	a.accounts = services.NewAccountService(db, rm, opts...)
	a.sales = services.NewSaleService(a.seats, a.products, a.accounts, opts...)

	if err := a.bootstrap(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.commands = a.commandTable()
	return a, nil
}

// Run starts the REPL and returns when input ends or the user quits.
func (a *App) Run(ctx context.Context) error {
	interactive := isInteractive(a.in)
	if interactive {
		fmt.Fprintln(a.out, "cinepos point of sale (type 'help' for commands)")
	}
	runREPL(ctx, a.commands, a.prompt, interactive, bufio.NewScanner(a.in), a.out)
	return a.Close(ctx)
}

// Close abandons an open draft, returning its stock, and releases resources.
// It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	var errs error
	if a.draft != nil && a.draft.State() == services.DraftOpen {
		errs = multierr.Append(errs, a.sales.Abort(ctx, a.draft))
	}
	a.draft = nil
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, a.closers[i]())
	}
	a.closers = nil
	return errs
}

func (a *App) prompt() string {
	if a.draft != nil && a.draft.State() == services.DraftOpen {
		return fmt.Sprintf("cinepos [%s @ %s]> ", a.draft.Account.ID, a.draft.Seat.ID)
	}
	return "cinepos> "
}
