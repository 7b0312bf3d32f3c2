package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"speckit/internal/gateway/config"
	"speckit/internal/gateway/events"
	"speckit/internal/gateway/handler"
	"speckit/internal/gateway/handler/rpc"
	"speckit/internal/gateway/handler/ws"
	"speckit/internal/gateway/repository/kvstore"
	"speckit/internal/gateway/server"
	"speckit/internal/gateway/service/export"
	"speckit/internal/gateway/service/library"
	"speckit/internal/gateway/service/session"
	"speckit/internal/gateway/trace"
	"speckit/internal/llm"
)

type App struct {
	server  *server.Server
	handler http.Handler
	store   kvstore.Store
	client  llm.LLMClient

	Sessions *session.Service
	Library  *library.Service
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(context.Background(), cfg)
}

// NewWithConfig wires every service from cfg. The system library and the
// local user's session index are loaded before it returns.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	// Dependencies
	store, objects, err := initStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	adapter, client, err := initLLM(ctx, cfg.LLM)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	broker := events.NewBroker()
	traces := trace.NewLogger(cfg.TraceDir)
	lib := library.New(store)
	sessions := session.New(store, lib, session.Options{
		LLM:       adapter,
		MockDelay: cfg.LLM.MockDelay,
		Broker:    broker,
		Trace:     traces,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := lib.Load(gctx)
		return err
	})
	g.Go(func() error {
		_, err := sessions.List(gctx, session.DefaultUser)
		return err
	})
	if err := g.Wait(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load initial data: %w", err)
	}

	workflowHandler := rpc.NewWorkflowHandler(sessions)
	sessionHandler := rpc.NewSessionHandler(sessions, export.New(objects))
	libraryHandler := rpc.NewLibraryHandler(lib)
	streamHandler := ws.NewSessionStreamHandler(broker, sessions)
	traceHandler := handler.NewTraceHandler(traces)

	// Routing & Server
	mux := server.NewMux(workflowHandler, sessionHandler, libraryHandler, streamHandler, traceHandler)
	srv := server.New(cfg.Port, mux)

	log.Printf("app: ready env=%s store=%s mock=%t", cfg.Env, cfg.Store.Kind, cfg.LLM.Mock())
	return &App{
		server:   srv,
		handler:  mux,
		store:    store,
		client:   client,
		Sessions: sessions,
		Library:  lib,
	}, nil
}

// Handler is the routed handler the server serves.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Start() error {
	return a.server.Start()
}

const shutdownTimeout = 5 * time.Second

// Run serves until ctx is done or the server fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Join(fmt.Errorf("server: %w", err), a.Shutdown(context.Background()))
		}
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server exiting")
	return nil
}

// Shutdown stops the server and releases the store and backend.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
