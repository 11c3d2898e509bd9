package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AnnaCarter465/tax-advisor/advisor"
	"github.com/AnnaCarter465/tax-advisor/auth"
	"github.com/AnnaCarter465/tax-advisor/client"
	"github.com/AnnaCarter465/tax-advisor/database"
	"github.com/AnnaCarter465/tax-advisor/handler"
	"github.com/AnnaCarter465/tax-advisor/metrics"
	"github.com/AnnaCarter465/tax-advisor/recommend"
	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/AnnaCarter465/tax-advisor/server"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the advisor HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap(serviceName)
			if err != nil {
				return err
			}
			defer log.Sync()

			rules, err := cfg.Ruleset.Load()
			if err != nil {
				return err
			}

			registry := newRegistry()
			m := metrics.New(registry, metrics.Config{ServiceName: serviceName, Environment: cfg.Env})

			vl := validator.New()
			a := advisor.New(rules, client.New(cfg.Calc.ServiceURL, cfg.Calc.Timeout), vl, m, log)
			e := server.NewAdvisor(cfg.Server, log, registry, handler.NewAdvisorHandler(vl, a, log))

			log.Info("advisor configured",
				zap.String("ruleset", rules.Name),
				zap.String("policy", string(rules.Policy)),
				zap.String("calc_service_url", cfg.Calc.ServiceURL),
			)

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx, e, server.NewHTTPServer(cfg.Server, e), cfg.Server.ShutdownTimeout, log)
		},
	}
}

func newCalcServiceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "calc-service",
		Short: "Run the reference tax calculation service",
		Long: "Run the reference tax calculation service. With DATABASE_URL set, deduction caps can be " +
			"overridden in PostgreSQL; with JWT_SECRET also set, the /admin routes are mounted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap(serviceName + "-calc")
			if err != nil {
				return err
			}
			defer log.Sync()

			rules, err := calcRuleset(cfg.Ruleset.Load)
			if err != nil {
				return err
			}

			legacy, err := ruleset.Load("legacy")
			if err != nil {
				return err
			}

			templates, err := recommend.LoadTemplates()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				store  handler.IDB
				admin  *handler.AdminHandler
				tokens *auth.TokenManager
			)

			vl := validator.New()

			if cfg.Database.URL != "" {
				db, err := openStore(ctx, cfg.Database.URL)
				if err != nil {
					return err
				}
				defer db.Close()

				store = db

				if cfg.Auth.JWTSecret != "" {
					tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
					admin = handler.NewAdminHandler(vl, db, log, rules, legacy)
				}
			}

			registry := newRegistry()
			m := metrics.New(registry, metrics.Config{ServiceName: serviceName + "-calc", Environment: cfg.Env})

			calc := handler.NewCalcHandler(vl, store, rules, legacy, templates, m, log)
			e := server.NewCalc(log, registry, calc, admin, tokens)

			log.Info("calculation service configured",
				zap.String("ruleset", rules.Name),
				zap.Bool("cap_overrides", store != nil),
				zap.Bool("admin", admin != nil),
			)

			serverCfg := cfg.Server
			serverCfg.Port = cfg.Calc.Port

			return server.Run(ctx, e, server.NewHTTPServer(serverCfg, e), cfg.Server.ShutdownTimeout, log)
		},
	}
}

// calcRuleset uses the configured ruleset when it targets calculate-tax and the default one
// otherwise; the legacy endpoint always runs on the legacy profile.
func calcRuleset(load func() (*ruleset.Ruleset, error)) (*ruleset.Ruleset, error) {
	rules, err := load()
	if err != nil {
		return nil, err
	}

	if rules.Endpoint == ruleset.EndpointCalculateTax {
		return rules, nil
	}

	return ruleset.Load(ruleset.Default)
}

func openStore(ctx context.Context, url string) (*database.DB, error) {
	db, err := database.NewDB(url)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}
