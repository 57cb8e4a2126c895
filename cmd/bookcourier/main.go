// cmd/bookcourier/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"bookcourier/internal/access"
	"bookcourier/internal/catalog"
	"bookcourier/internal/config"
	"bookcourier/internal/history"
	"bookcourier/internal/identity"
	"bookcourier/internal/metrics"
	"bookcourier/internal/orders"
	"bookcourier/internal/payments"
	"bookcourier/internal/reviews"
	"bookcourier/internal/telemetry"
	"bookcourier/internal/wishlist"
)

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger := zapLogger.Sugar()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("failed to load configuration", "error", err)
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatalw("failed to set up tracing", "error", err)
	}
	defer shutdownTracing(ctx)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Fatalw("database unreachable", "error", err)
	}

	identities := identity.NewService(db, []byte(cfg.TokenSecret), cfg.TokenTTL)
	books := catalog.NewService(db)
	orderLog := history.NewLog(db)
	provider := payments.NewClient(payments.ClientConfig{
		BaseURL: cfg.PaymentBaseURL,
		APIKey:  cfg.PaymentAPIKey,
	})
	orderService := orders.NewService(db, books, provider, orderLog, orders.RedirectURLs{
		Success: cfg.PaymentSuccessURL,
		Cancel:  cfg.PaymentCancelURL,
	})
	reviewService := reviews.NewService(db, orderService)
	wishlistService := wishlist.NewService(db)

	gate := access.NewGatekeeper(identities, logger)

	identityHandler := identity.NewHandler(identities)
	catalogHandler := catalog.NewHandler(books)
	orderHandler := orders.NewHandler(orderService)
	reviewHandler := reviews.NewHandler(reviewService)
	wishlistHandler := wishlist.NewHandler(wishlistService)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface: browsing and signing in need no session.
		r.Post("/auth/register", identityHandler.HandleRegister)
		r.Post("/auth/signin", identityHandler.HandleSignIn)
		r.Post("/auth/upsert", identityHandler.HandleUpsert)

		r.Get("/books", catalogHandler.HandleList)
		r.Get("/books/{id}", catalogHandler.HandleGet)
		r.Get("/reviews/{bookId}", reviewHandler.HandleList)

		// The payment provider redirects here; the purchaser may land on
		// this page in a fresh tab without a usable session.
		r.Patch("/payments/success", orderHandler.HandlePaymentSuccess)

		// Everything below requires an authenticated session.
		r.Group(func(r chi.Router) {
			r.Use(gate.Authenticate)

			r.Get("/users/{email}/role", identityHandler.HandleGetRole)
			r.Patch("/users/profile", identityHandler.HandleUpdateProfile)

			r.Post("/orders", orderHandler.HandlePlace)
			r.Get("/orders", orderHandler.HandleListMine)
			r.Patch("/orders/{id}/cancel", orderHandler.HandleCancel)
			r.Get("/orders/{id}/history", orderHandler.HandleHistory)
			r.Get("/orders/completed/{bookId}", orderHandler.HandleCompletedCheck)
			r.Post("/orders/{id}/checkout", orderHandler.HandleCheckout)
			r.Get("/payments", orderHandler.HandleListPayments)

			r.Post("/reviews", reviewHandler.HandleAdd)

			r.Get("/wishlist", wishlistHandler.HandleList)
			r.Post("/wishlist", wishlistHandler.HandleSave)
			r.Delete("/wishlist/{id}", wishlistHandler.HandleRemove)

			// Librarian surface.
			r.Group(func(r chi.Router) {
				r.Use(gate.RequireRole(identity.RoleLibrarian, identity.RoleAdmin))

				r.Post("/books", catalogHandler.HandleAdd)
				r.Get("/librarian/books", catalogHandler.HandleListMine)
				r.Patch("/books/{id}", catalogHandler.HandleUpdate)
				r.Get("/librarian/orders", orderHandler.HandleListForLibrarian)
				r.Patch("/orders/{id}/status", orderHandler.HandleUpdateStatus)
			})

			// Admin surface.
			r.Group(func(r chi.Router) {
				r.Use(gate.RequireRole(identity.RoleAdmin))

				r.Get("/users", identityHandler.HandleListUsers)
				r.Patch("/users/{email}/role", identityHandler.HandleUpdateRole)
				r.Get("/admin/books", catalogHandler.HandleListAll)
				r.Delete("/books/{id}", catalogHandler.HandleDelete)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infow("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("graceful shutdown failed", "error", err)
	}
}
