// Command financas is the command-line front door to the tracker core:
// it records entry series, toggles payments and prints month overviews.
// The web layer, when deployed, drives the same services package.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"financas/internal/amqp"
	"financas/internal/cli"
	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/services"
	"financas/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without event publishing", "error", err)
			amqpClient = nil
		}
	}

	service := services.NewSeriesService(repo, amqpClient, services.Generator{HorizonYears: cfg.HorizonYears})
	defer service.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "add":
		err = runAdd(ctx, service, os.Args[2:])
	case "pay":
		err = runPay(ctx, service, os.Args[2:])
	case "edit":
		err = runEdit(ctx, service, os.Args[2:])
	case "delete":
		err = runDelete(ctx, service, repo, os.Args[2:])
	case "card-add":
		err = runCardAdd(ctx, repo, os.Args[2:])
	case "month":
		err = runMonth(ctx, repo, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: financas <command> [flags]

commands:
  add       record an income or expense series
  pay       toggle the paid flag of an installment
  edit      change an installment and its future series siblings
  delete    remove an installment, optionally with its future siblings
  card-add  register a credit card
  month     print a month overview`)
}

func runAdd(ctx context.Context, service *services.SeriesService, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	entryType := fs.String("type", "expense", "entry type: income or expense")
	category := fs.Int64("category", 0, "category id (required)")
	subcategory := fs.Int64("subcategory", 0, "subcategory id")
	start := fs.String("start", "", "start date YYYY-MM-DD (required)")
	end := fs.String("end", "", "end date YYYY-MM-DD (empty = open-ended)")
	recurrence := fs.String("recurrence", "once", "recurrence kind")
	value := fs.String("value", "", "installment value, e.g. 120.50 or 1.234,56 (required)")
	commonDay := fs.Int("day", 0, "preferred day of month (1-31)")
	owner := fs.Int64("owner", 1, "owner id")
	fixed := fs.Bool("fixed", false, "mark as fixed recurring obligation")
	card := fs.Int64("card", 0, "credit card id (expenses only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cents, err := core.ParseDecimalToCents(*value)
	if err != nil {
		return fmt.Errorf("value %q: %w", *value, err)
	}

	startDate, err := parseDate(*start)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	var endDate core.Date
	if *end != "" {
		endDate, err = parseDate(*end)
		if err != nil {
			return fmt.Errorf("end date: %w", err)
		}
	}

	series := core.EntrySeries{
		Type:          core.EntryType(*entryType),
		CategoryID:    *category,
		SubcategoryID: *subcategory,
		StartDate:     startDate,
		EndDate:       endDate,
		Recurrence:    core.RecurrenceKind(*recurrence),
		Amount:        core.Money{Cents: cents},
		CommonDay:     *commonDay,
		OwnerID:       *owner,
		Fixed:         *fixed,
		CardID:        *card,
	}

	installments, err := service.CreateSeries(ctx, series)
	if err != nil {
		return err
	}

	for _, inst := range installments {
		fmt.Printf("%4d/%-4s %s %10.2f  #%d\n",
			inst.Sequence, inst.TotalLabel,
			inst.EffectiveDate.Format("2006-01-02"),
			inst.Amount.Reais(), inst.ID)
	}
	return nil
}

func runPay(ctx context.Context, service *services.SeriesService, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	id := fs.Int64("id", 0, "installment id (required)")
	owner := fs.Int64("owner", 1, "owner id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return fmt.Errorf("missing -id")
	}

	paid, err := service.TogglePaid(ctx, *owner, *id)
	if err != nil {
		return err
	}
	if paid {
		fmt.Printf("installment %d marked paid\n", *id)
	} else {
		fmt.Printf("installment %d marked unpaid\n", *id)
	}
	return nil
}

func runEdit(ctx context.Context, service *services.SeriesService, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.Int64("id", 0, "installment id (required)")
	owner := fs.Int64("owner", 1, "owner id")
	value := fs.String("value", "", "new installment value")
	category := fs.Int64("category", 0, "new category id")
	subcategory := fs.Int64("subcategory", 0, "new subcategory id (0 clears it)")
	fixed := fs.Bool("fixed", false, "new fixed flag")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return fmt.Errorf("missing -id")
	}

	// Only flags the user actually passed become changes.
	var changes storage.InstallmentChanges
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "category":
			changes.CategoryID = category
		case "subcategory":
			changes.SubcategoryID = subcategory
		case "fixed":
			changes.Fixed = fixed
		}
	})
	if *value != "" {
		cents, err := core.ParseDecimalToCents(*value)
		if err != nil {
			return fmt.Errorf("value %q: %w", *value, err)
		}
		changes.AmountCents = &cents
	}

	n, err := service.UpdateThisAndFuture(ctx, *owner, *id, changes)
	if err != nil {
		return err
	}
	fmt.Printf("%d installments updated\n", n)
	return nil
}

func runDelete(ctx context.Context, service *services.SeriesService, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "installment id (required)")
	owner := fs.Int64("owner", 1, "owner id")
	future := fs.Bool("future", false, "also delete later installments of the same series")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return fmt.Errorf("missing -id")
	}

	if *future {
		n, err := service.DeleteThisAndFuture(ctx, *owner, *id)
		if err != nil {
			return err
		}
		fmt.Printf("%d installments deleted\n", n)
		return nil
	}

	if err := repo.DeleteInstallment(ctx, *owner, *id); err != nil {
		return err
	}
	fmt.Printf("installment %d deleted\n", *id)
	return nil
}

func runCardAdd(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("card-add", flag.ExitOnError)
	name := fs.String("name", "", "card name (required)")
	closeDay := fs.Int("close", 0, "statement close day 1-31 (required)")
	dueDay := fs.Int("due", 0, "payment due day 1-31 (required)")
	owner := fs.Int64("owner", 1, "owner id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("missing -name")
	}

	id, err := repo.CreateCard(ctx, *owner, *name, core.CardConfig{CloseDay: *closeDay, DueDay: *dueDay})
	if err != nil {
		return err
	}
	fmt.Printf("card %q registered with id %d\n", *name, id)
	return nil
}

func runMonth(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("month", flag.ExitOnError)
	year := fs.Int("year", time.Now().Year(), "year")
	month := fs.Int("month", int(time.Now().Month()), "month 1-12")
	owner := fs.Int64("owner", 1, "owner id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	overview, err := repo.ReadMonthOverview(ctx, *owner, *year, *month)
	if err != nil {
		return err
	}

	fmt.Printf("%04d-%02d  income %10.2f  expense %10.2f  balance %10.2f\n",
		overview.Year, overview.Month,
		overview.Income.Reais(), overview.Expense.Reais(),
		overview.Income.Reais()-overview.Expense.Reais())
	for _, ca := range overview.ByExpense {
		fmt.Printf("  category %-6d %10.2f\n", ca.CategoryID, ca.Amount.Reais())
	}

	installments, err := repo.ListInstallmentsByMonth(ctx, *owner, *year, *month)
	if err != nil {
		return err
	}
	for _, inst := range installments {
		paid := " "
		if inst.Paid {
			paid = "x"
		}
		fmt.Printf("  [%s] #%-5d %s %-7s %4d/%-4s %10.2f\n",
			paid, inst.ID, inst.EffectiveDate.Format("2006-01-02"),
			inst.Type, inst.Sequence, inst.TotalLabel, inst.Amount.Reais())
	}
	return nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t.UTC()}, nil
}
