package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/alovak/payment-gateway-playground/gateway/bank"
	gateway8583 "github.com/alovak/payment-gateway-playground/gateway/iso8583"
	"github.com/alovak/payment-gateway-playground/internal/metrics"
	"github.com/alovak/payment-gateway-playground/internal/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
	_ "github.com/lib/pq"
)

// App is the main application, it contains all the components of the
// payment gateway service and is responsible for starting and stopping
// them.
type App struct {
	srv        *http.Server
	wg         *sync.WaitGroup
	Addr       string
	logger     *slog.Logger
	bankCloser io.Closer
	config     *Config
}

func NewApp(logger *slog.Logger, config *Config) *App {
	logger = logger.With(slog.String("app", "gateway"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
	}
}

func (a *App) Start() error {
	a.logger.Info("starting app...")

	router := chi.NewRouter()
	router.Use(middleware.NewStructuredLogger(a.logger))

	// Choose repository backend: default to mem; pg requires DB_DSN
	var repository *Repository
	backend := getenv("REPO_BACKEND", "mem")
	switch backend {
	case "mem":
		repository = NewRepository()
	case "pg":
		dsn := getenv("DB_DSN", "")
		if dsn == "" {
			return fmt.Errorf("DB_DSN is required for pg backend")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxIdleConns(5)
		db.SetMaxOpenConns(10)
		if err := db.Ping(); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		repository = NewPGRepository(db)
	default:
		return fmt.Errorf("unsupported REPO_BACKEND=%s", backend)
	}

	var bankClient bankValidator
	switch a.config.BankBackend {
	case "", "http":
		bankClient = bank.NewClient(a.config.BankBaseURL, a.config.BankTimeout)
	case "iso8583":
		client, err := gateway8583.NewClient(a.config.ISO8583Addr)
		if err != nil {
			return fmt.Errorf("connecting to card network: %w", err)
		}
		a.bankCloser = client
		bankClient = client
	default:
		return fmt.Errorf("unsupported bank backend %s", a.config.BankBackend)
	}

	m := metrics.New()
	service := NewService(repository, bankClient, m)

	api := NewAPI(service)
	api.AppendRoutes(router)

	router.Handle("/metrics", m.Handler())

	// Health endpoints
	router.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router.Get("/-/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repository.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler: router,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started", slog.String("addr", a.Addr))

		if err := a.srv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				a.logger.Error("starting http server", "err", err)
			}

			a.logger.Info("http server stopped")
		}

		a.wg.Done()
	}()

	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	a.srv.Shutdown(context.Background())

	if a.bankCloser != nil {
		if err := a.bankCloser.Close(); err != nil {
			a.logger.Error("closing card network connection", "err", err)
		}
	}

	a.wg.Wait()

	a.logger.Info("app stopped")
}
