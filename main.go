package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/subscription-tracker/internal"
)

var actions = "list,show,add,update,delete,price,remind,snooze,unsnooze,upcoming,alerts,totals,settings,demo,export,export-xlsx,import,reset,config-init"

type Params struct {
	Action string   `descr:"What to do" positional:"true" alts:"list,show,add,update,delete,price,remind,snooze,unsnooze,upcoming,alerts,totals,settings,demo,export,export-xlsx,import,reset,config-init" strict:"true"`
	Args   []string `descr:"Subscription id, or file for import/export (xlsx:path, backup-json:path)" positional:"true" optional:"true"`

	Config  string `descr:"Path to config file (default: ~/.subscription-tracker/config.yaml)" optional:"true"`
	DataDir string `descr:"Directory holding the saved state (overrides config)" optional:"true"`
	Output  string `descr:"Output format" alts:"table,json" default:"table"`
	Verbose bool   `descr:"Log debug output to stderr" optional:"true"`

	// list
	Show     string `descr:"Which subscriptions to show" alts:"all,active,trial,paused,cancelled" default:"all"`
	Category string `descr:"Only show this category" optional:"true"`
	Sort     string `descr:"Sort field" alts:"name,price,monthly,renewal" default:"name"`
	SortDir  string `descr:"Sort direction" alts:"asc,desc" default:"asc"`

	// add / update
	Name     string `descr:"Subscription name" optional:"true"`
	Price    string `descr:"Price per period" optional:"true"`
	Currency string `descr:"ISO currency code" optional:"true"`
	Cadence  string `descr:"Billing cadence" alts:"weekly,monthly,quarterly,yearly" optional:"true"`
	Status   string `descr:"Subscription status" alts:"active,trial,paused,cancelled" optional:"true"`
	Start    string `descr:"Start date (YYYY-MM-DD)" optional:"true"`
	Renewal  string `descr:"Next renewal date (YYYY-MM-DD), whole cadence periods after the start date" optional:"true"`
	Payment  string `descr:"Payment method" alts:"card,paypal,bank,apple_pay,google_pay,other" optional:"true"`
	Website  string `descr:"Website URL" optional:"true"`
	Notes    string `descr:"Free text notes" optional:"true"`

	// price / remind / snooze / upcoming / settings
	Note       string `descr:"Note for a price change" optional:"true"`
	Reminder   string `descr:"Reminder id or type (onDay, 1day, 3days, 7days)" optional:"true"`
	Enabled    string `descr:"Enable or disable the reminder" alts:"true,false" optional:"true"`
	Until      string `descr:"Snooze until this date (YYYY-MM-DD, default tomorrow)" optional:"true"`
	Days       int    `descr:"Renewal window in days (default from config)" optional:"true"`
	DateFormat string `descr:"Date display format" alts:"MM/DD/YYYY,DD/MM/YYYY,YYYY-MM-DD" optional:"true"`
	Yes        bool   `descr:"Confirm reset" optional:"true"`
}

func main() {
	boa.NewCmdT[Params]("subscription-tracker").
		WithShort("Track recurring subscriptions, renewals and spending").
		WithLong("Keeps a local list of subscriptions with prices, billing cadence, renewal dates, reminders and price history.\n\nActions: " + actions).
		WithRunFunc(func(params *Params) {
			if err := run(context.Background(), params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

// run executes one action: load config, open the stores, initialize the
// engine, dispatch, and flush the pending write before returning.
func run(ctx context.Context, params *Params, out io.Writer) error {
	cfg, err := loadConfig(params)
	if err != nil {
		return err
	}

	level := cfg.Level()
	if params.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if cfg.Locale != "" {
		if !internal.SetFormattingLocale(cfg.Locale) {
			logger.Warn("ignoring invalid locale", "locale", cfg.Locale)
		}
	} else {
		internal.DetectSystemCurrency()
	}

	if params.Action == "config-init" {
		return initConfig(params, cfg, out)
	}

	store := internal.OpenStore(ctx, cfg, logger)
	defer store.Close()

	engine := internal.NewEngine(store,
		internal.WithDebounce(cfg.DebounceDuration()),
		internal.WithLogger(logger),
	)
	defer engine.Close()

	if err := engine.Initialize(ctx); err != nil {
		logger.Warn("continuing without saved state", "error", err)
	}

	a := &app{
		engine: engine,
		cfg:    cfg,
		params: params,
		out:    out,
		now:    time.Now,
	}
	if err := a.dispatch(ctx); err != nil {
		return err
	}
	return engine.Flush(ctx)
}

func loadConfig(params *Params) (*internal.Config, error) {
	if err := internal.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	// An explicitly named config must exist, except when we are about to create it
	var cfg *internal.Config
	var err error
	if params.Config != "" && params.Action != "config-init" {
		cfg, err = internal.LoadConfig(params.Config)
	} else {
		path := params.Config
		if path == "" {
			path = internal.DefaultConfigPath()
		}
		cfg, err = internal.LoadConfigOrDefault(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if params.DataDir != "" {
		cfg.DataDir = params.DataDir
	}
	return cfg, nil
}

func initConfig(params *Params, cfg *internal.Config, out io.Writer) error {
	path := params.Config
	if path == "" {
		path = internal.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote config to %s\n", path)
	return nil
}
