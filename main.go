package main

// Commands (one per line, type help for the list):
//   sign_up, sign_in, sign_out, show_plans, show_subscription,
//   change_stock, subscribe, ship, show_cart, change_cart,
//   purchase_cart, quit
//
// marketplace isolation reader|writer runs the isolation level
// experiment against the configured SQL database.

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"marketplace/config"
	"marketplace/events"
	"marketplace/handler"
	"marketplace/isolation"
	"marketplace/logger"
	"marketplace/service"
	"marketplace/store"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	if err := config.LoadDotenv(*envFile); err != nil {
		fatal("loading env file failed", err)
	}
	cfg, err := config.New()
	if err != nil {
		fatal("invalid configuration", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// --- Store ---
	st, err := openStore(cfg)
	if err != nil {
		fatal("opening store failed", err)
	}
	defer st.Close()

	if args := flag.Args(); len(args) > 0 {
		if err := runSubcommand(ctx, st, args); err != nil {
			fatal("command failed", err)
		}
		return
	}

	if err := store.SeedPlans(ctx, st, store.DefaultPlans); err != nil {
		fatal("seeding plans failed", err)
	}

	// --- Service ---
	var pub events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled {
		pub = events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsQueue)
	}
	var svc service.ServiceInterface = service.NewService(st, service.WithPublisher(pub))

	// --- Command loop ---
	h := handler.NewHandler(svc, os.Stdout)
	logger.Info("marketplace ready", map[string]interface{}{
		"driver": cfg.Driver,
		"events": cfg.EventsEnabled,
	})
	repl(ctx, h)
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Driver == "memory" {
		return store.NewMemoryStore(), nil
	}
	return store.Open(cfg.Driver, cfg.DatabaseURL, cfg.StoreOptions())
}

func runSubcommand(ctx context.Context, st store.Store, args []string) error {
	if args[0] != "isolation" || len(args) != 2 {
		return fmt.Errorf("usage: marketplace [-env file] [isolation reader|writer]")
	}
	sqlStore, ok := st.(*store.SQLStore)
	if !ok {
		return fmt.Errorf("isolation experiment needs a SQL database, DB_DRIVER is memory")
	}
	demo, err := isolation.New(sqlStore, os.Stdout, isolation.LinePause(os.Stdin, os.Stdout))
	if err != nil {
		return err
	}
	return demo.Run(ctx, args[1])
}

func repl(ctx context.Context, h *handler.Handler) {
	h.Execute(ctx, "help")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			// end of input ends the session like quit does
			h.Execute(context.Background(), "quit")
			return
		}
		if ctx.Err() != nil {
			h.Execute(context.Background(), "quit")
			return
		}
		if h.Execute(ctx, scanner.Text()) {
			return
		}
	}
}

func fatal(msg string, err error) {
	logger.Error(msg, map[string]interface{}{"error": err})
	os.Exit(1)
}
