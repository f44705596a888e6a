package banksim

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/alovak/payment-gateway-playground/internal/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

type App struct {
	srv    *http.Server
	wg     *sync.WaitGroup
	Addr   string
	logger *slog.Logger
	addr   string
}

func NewApp(logger *slog.Logger, addr string) *App {
	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger.With(slog.String("app", "banksim")),
		addr:   addr,
	}
}

func (a *App) Start() error {
	router := chi.NewRouter()
	router.Use(middleware.NewStructuredLogger(a.logger))

	NewAPI().AppendRoutes(router)

	l, err := net.Listen("tcp", a.addr)
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

		if err := a.srv.Serve(l); err != nil && err != http.ErrServerClosed {
			a.logger.Error("starting http server", "err", err)
		}

		a.wg.Done()
	}()

	return nil
}

func (a *App) Shutdown() {
	a.srv.Shutdown(context.Background())
	a.wg.Wait()
}
