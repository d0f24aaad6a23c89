package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/cinepos/internal/common"
	"github.com/dmitrijs2005/cinepos/internal/export"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/services"
	"github.com/dmitrijs2005/cinepos/internal/timex"
)

func (a *App) commandTable() map[string]command {
	return map[string]command{
		"seats":      {"[yyyy/mm/dd]", "list seats, optionally as of the end of a day", a.listSeats},
		"bookable":   {"", "list seats that can be sold now", a.listBookable},
		"status":     {"<seat> <ACTIVE|UNDER_MAINTENANCE|OUT_OF_SERVICE>", "change a seat's status", a.setSeatStatus},
		"products":   {"[yyyy/mm/dd]", "list products, optionally as of the end of a day", a.listProducts},
		"addproduct": {"<name> <price> <stock> <DRINK|FOOD|OTHER>", "add a product", a.addProduct},
		"update":     {"<product> <name> <price> <DRINK|FOOD|OTHER>", "rename or reprice a product", a.updateProduct},
		"restock":    {"<product> <delta>", "add (or remove) product stock", a.restock},
		"accounts":   {"", "list accounts", a.listAccounts},
		"account":    {"<ABC123>", "create an account", a.createAccount},
		"delete":     {"<seat|product|account> <id>", "soft-delete an entity", a.deleteEntity},
		"begin":      {"<account> <seat>", "start a sale", a.begin},
		"add":        {"<product> <qty>", "add products to the current sale", a.addLine},
		"draft":      {"", "show the current sale", a.showDraft},
		"commit":     {"", "complete the current sale", a.commit},
		"abort":      {"", "drop the current sale and return its stock", a.abort},
		"cancel":     {"<sale>", "cancel a completed sale", a.cancel},
		"sales":      {"[account]", "list sales, optionally of one account", a.listSales},
		"receipt":    {"<sale>", "export a sale's receipt again", a.receipt},
		"revenue":    {"<yyyy/mm/dd>", "total of the sales alive at the end of a day", a.revenue},
		"export":     {"[yyyy/mm/dd]", "write a JSON snapshot of the seats", a.exportSeats},
	}
}

// optionalDay parses an optional day argument. With no argument it returns
// false and the caller reads the current state.
func optionalDay(args []string) (time.Time, bool, error) {
	if len(args) == 0 {
		return time.Time{}, false, nil
	}
	day, err := timex.ParseDay(args[0], time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return timex.EndOfDay(day), true, nil
}

func (a *App) listSeats(ctx context.Context, args []string) error {
	at, asOf, err := optionalDay(args)
	if err != nil {
		return err
	}
	var seats []models.Seat
	if asOf {
		seats, err = a.seats.FindAllAsOf(ctx, at)
	} else {
		seats, err = a.seats.FindAll(ctx)
	}
	if err != nil {
		return err
	}
	printSeats(a.out, seats)
	return nil
}

func (a *App) listBookable(ctx context.Context, _ []string) error {
	seats, err := a.seats.FindBookable(ctx)
	if err != nil {
		return err
	}
	printSeats(a.out, seats)
	return nil
}

func (a *App) setSeatStatus(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	status, err := models.ParseSeatStatus(args[1])
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	seat, err := a.seats.SetStatus(ctx, args[0], status)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Seat %s is now %s.\n", seat.ID, seat.Status)
	return nil
}

func (a *App) listProducts(ctx context.Context, args []string) error {
	at, asOf, err := optionalDay(args)
	if err != nil {
		return err
	}
	var products []models.Product
	if asOf {
		products, err = a.products.FindAllAsOf(ctx, at)
	} else {
		products, err = a.products.FindAll(ctx)
	}
	if err != nil {
		return err
	}
	printProducts(a.out, products)
	return nil
}

func (a *App) addProduct(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errUsage
	}
	price, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("%w: price %q", common.ErrValidation, args[1])
	}
	stock, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("%w: stock %q", common.ErrValidation, args[2])
	}
	kind, err := models.ParseProductKind(args[3])
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	p, err := a.products.Save(ctx, models.Product{Name: args[0], Price: price, Stock: stock, Kind: kind})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Product %s saved as %s.\n", p.Name, p.ID)
	return nil
}

func (a *App) updateProduct(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errUsage
	}
	price, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("%w: price %q", common.ErrValidation, args[2])
	}
	kind, err := models.ParseProductKind(args[3])
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	p, err := a.resolveProduct(ctx, args[0])
	if err != nil {
		return err
	}
	next := *p
	next.Name = args[1]
	next.Price = price
	next.Kind = kind
	updated, err := a.products.Update(ctx, next)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Product %s updated: %s %s € (%s).\n", updated.ID, updated.Name, updated.Price.StringFixed(2), updated.Kind)
	return nil
}

func (a *App) restock(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: delta %q", common.ErrValidation, args[1])
	}
	p, err := a.resolveProduct(ctx, args[0])
	if err != nil {
		return err
	}
	p, err = a.products.AdjustStock(ctx, p.ID, delta)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s stock: %d\n", p.Name, p.Stock)
	return nil
}

func (a *App) listAccounts(ctx context.Context, _ []string) error {
	accounts, err := a.accounts.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No accounts.")
		return nil
	}
	for _, acc := range accounts {
		fmt.Fprintln(a.out, acc.ID)
	}
	return nil
}

func (a *App) createAccount(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	acc, err := a.accounts.Create(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s created.\n", acc.ID)
	return nil
}

func (a *App) deleteEntity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	var err error
	switch strings.ToLower(args[0]) {
	case "seat":
		err = a.seats.SoftDelete(ctx, args[1])
	case "account":
		err = a.accounts.SoftDelete(ctx, args[1])
	case "product":
		var p *models.Product
		if p, err = a.resolveProduct(ctx, args[1]); err == nil {
			err = a.products.SoftDelete(ctx, p.ID)
		}
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s %s.\n", strings.ToLower(args[0]), args[1])
	return nil
}

func (a *App) begin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	if a.draft != nil && a.draft.State() == services.DraftOpen {
		return fmt.Errorf("%w: sale for %s @ %s is still open, commit or abort it first",
			common.ErrInvalidState, a.draft.Account.ID, a.draft.Seat.ID)
	}
	d, err := a.sales.Begin(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	a.draft = d
	fmt.Fprintf(a.out, "Sale started for %s, seat %s (%s €).\n", d.Account.ID, d.Seat.ID, d.Seat.Kind.Price().StringFixed(2))
	return nil
}

func (a *App) openDraft() (*services.Draft, error) {
	if a.draft == nil || a.draft.State() != services.DraftOpen {
		return nil, fmt.Errorf("%w: no sale in progress, use begin", common.ErrInvalidState)
	}
	return a.draft, nil
}

func (a *App) addLine(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	d, err := a.openDraft()
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: quantity %q", common.ErrValidation, args[1])
	}
	p, err := a.resolveProduct(ctx, args[0])
	if err != nil {
		return err
	}
	line, err := a.sales.AddLine(ctx, d, p.ID, qty)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s x %d added, sale total %s €.\n", line.Product.Name, qty, d.Total().StringFixed(2))
	return nil
}

func (a *App) showDraft(_ context.Context, _ []string) error {
	d, err := a.openDraft()
	if err != nil {
		return err
	}
	printSale(a.out, models.Sale{
		Meta:    models.Meta{ID: d.ID, CreatedAt: d.StartedAt},
		Account: d.Account,
		Seat:    d.Seat,
		Lines:   d.Lines(),
	})
	return nil
}

func (a *App) commit(ctx context.Context, _ []string) error {
	d, err := a.openDraft()
	if err != nil {
		return err
	}
	sale, err := a.sales.Commit(ctx, d)
	if err != nil {
		return err
	}
	a.draft = nil
	fmt.Fprintf(a.out, "Sale %s completed, total %s €.\n", sale.ID, sale.Total().StringFixed(2))

	// The sale stands even when the receipt cannot be written.
	if loc, err := a.sales.Export(ctx, *sale); err != nil {
		fmt.Fprintln(a.out, describeError(err))
	} else if loc != "" {
		fmt.Fprintln(a.out, "Receipt:", loc)
	}
	return nil
}

func (a *App) abort(ctx context.Context, _ []string) error {
	d, err := a.openDraft()
	if err != nil {
		return err
	}
	if err := a.sales.Abort(ctx, d); err != nil {
		return err
	}
	a.draft = nil
	fmt.Fprintln(a.out, "Sale aborted.")
	return nil
}

func (a *App) cancel(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	sale, err := a.sales.Cancel(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Sale %s cancelled, seat %s released.\n", sale.ID, sale.Seat.ID)
	return nil
}

func (a *App) listSales(ctx context.Context, args []string) error {
	var (
		sales []models.Sale
		err   error
	)
	switch len(args) {
	case 0:
		sales, err = a.sales.FindAll(ctx)
	case 1:
		sales, err = a.sales.FindByAccount(ctx, args[0])
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	printSales(a.out, sales)
	return nil
}

func (a *App) receipt(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	sale, err := a.sales.FindByID(ctx, args[0])
	if err != nil {
		return err
	}
	loc, err := a.sales.Export(ctx, *sale)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Receipt:", loc)
	return nil
}

func (a *App) revenue(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	at, _, err := optionalDay(args)
	if err != nil {
		return err
	}
	total, err := a.sales.Revenue(ctx, at)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Revenue on %s: %s €\n", at.Format("2006/01/02"), total.StringFixed(2))
	return nil
}

func (a *App) exportSeats(ctx context.Context, args []string) error {
	at, asOf, err := optionalDay(args)
	if err != nil {
		return err
	}
	var seats []models.Seat
	if asOf {
		seats, err = a.seats.FindAllAsOf(ctx, at)
	} else {
		at = time.Now()
		seats, err = a.seats.FindAll(ctx)
	}
	if err != nil {
		return err
	}
	path, err := export.SaveSeats(a.config.DataDir, seats, at)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d seats written to %s\n", len(seats), path)
	return nil
}

// resolveProduct accepts a product id or its exact name, ignoring case.
func (a *App) resolveProduct(ctx context.Context, ref string) (*models.Product, error) {
	p, err := a.products.FindByID(ctx, ref)
	if err == nil {
		return p, nil
	}
	all, listErr := a.products.FindAll(ctx)
	if listErr != nil {
		return nil, listErr
	}
	var match *models.Product
	for i := range all {
		if strings.EqualFold(all[i].Name, ref) {
			if match != nil {
				return nil, fmt.Errorf("%w: several products are named %q, use the id", common.ErrValidation, ref)
			}
			match = &all[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("product %q: %w", ref, common.ErrNotFound)
	}
	return match, nil
}
