package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/lamacoid/Vurmz.com-sub003/internal/auth"
	"github.com/lamacoid/Vurmz.com-sub003/internal/blob"
	"github.com/lamacoid/Vurmz.com-sub003/internal/config"
	"github.com/lamacoid/Vurmz.com-sub003/internal/handlers"
	"github.com/lamacoid/Vurmz.com-sub003/internal/labelgen"
	"github.com/lamacoid/Vurmz.com-sub003/internal/lifecycle"
	"github.com/lamacoid/Vurmz.com-sub003/internal/mailer"
	"github.com/lamacoid/Vurmz.com-sub003/internal/ordernum"
	"github.com/lamacoid/Vurmz.com-sub003/internal/store"
)

func main() {
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	// TextHandler for console readability; swap for JSONHandler if logs get shipped.
	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Init DB
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}

	if err := db.Migrate("migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// 3. Flash-message session setup (auth sessions live in the DB)
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 4. Templates
	templates := handlers.NewTemplateCache()
	if err := templates.Load(cfg.TemplateDir); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	// 5. Services
	var sender mailer.Sender
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	} else {
		slog.Warn("SMTP_HOST not set, emails will only be logged")
		sender = &mailer.LogSender{}
	}

	alloc := ordernum.NewAllocator(db, nil)
	lifecycleSvc := lifecycle.NewService(db, sender, alloc, cfg.BaseURL, cfg.EmailFrom)
	authSvc := auth.NewService(db, sender, cfg.BaseURL, cfg.EmailFrom)

	blobs, err := blob.NewFSStore(cfg.UploadDir)
	if err != nil {
		slog.Error("Failed to init upload store", "error", err)
		os.Exit(1)
	}

	labels, err := labelgen.New()
	if err != nil {
		slog.Error("Failed to init label generator", "error", err)
		os.Exit(1)
	}

	cookies := handlers.CookieWriter{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain}

	// 6. Handlers
	publicHandler := &handlers.PublicHandler{
		Store:        db,
		Lifecycle:    lifecycleSvc,
		Templates:    templates,
		SessionStore: sessionStore,
	}
	portalHandler := &handlers.PortalHandler{
		Store:        db,
		Auth:         authSvc,
		Templates:    templates,
		SessionStore: sessionStore,
		Cookies:      cookies,
	}
	adminHandler := &handlers.AdminHandler{
		Store:        db,
		Lifecycle:    lifecycleSvc,
		Auth:         authSvc,
		Labels:       labels,
		Blobs:        blobs,
		Templates:    templates,
		SessionStore: sessionStore,
		Cookies:      cookies,
	}

	mux := http.NewServeMux()

	// Static files and uploaded images
	mux.Handle("/static/", http.StripPrefix("/static", http.FileServer(http.Dir("./static"))))
	mux.Handle("/uploads/", http.StripPrefix("/uploads", http.FileServer(http.Dir(cfg.UploadDir))))

	// Rate limiter for the unauthenticated write endpoints
	rateLimiter := handlers.NewRateLimiter(1 * time.Minute)

	// Public routes
	mux.HandleFunc("/", publicHandler.Index)
	mux.HandleFunc("POST /quote-request", rateLimiter.Middleware(publicHandler.SubmitQuoteRequest))
	mux.HandleFunc("GET /quote/{token}", publicHandler.ViewQuote)
	mux.HandleFunc("POST /quote/{token}/accept", publicHandler.AcceptQuote)
	mux.HandleFunc("POST /quote/{token}/decline", publicHandler.DeclineQuote)

	// Customer portal (magic link)
	mux.HandleFunc("GET /portal/login", portalHandler.LoginForm)
	mux.HandleFunc("POST /portal/login", rateLimiter.Middleware(portalHandler.SendLoginLink))
	mux.HandleFunc("GET /portal/verify", portalHandler.VerifyLogin)
	mux.HandleFunc("GET /portal", portalHandler.RequireCustomer(portalHandler.Dashboard))
	mux.HandleFunc("POST /portal/logout", portalHandler.Logout)

	// Admin login
	mux.HandleFunc("GET /admin/login", adminHandler.LoginForm)
	mux.HandleFunc("POST /admin/login", rateLimiter.Middleware(adminHandler.SendLoginLink))
	mux.HandleFunc("POST /admin/login/password", adminHandler.PasswordLogin)
	mux.HandleFunc("GET /admin/verify", adminHandler.VerifyLogin)
	mux.HandleFunc("POST /admin/logout", adminHandler.Logout)

	// Admin: protected routes
	mux.HandleFunc("GET /admin", adminHandler.RequireAdmin(adminHandler.Dashboard))

	mux.HandleFunc("GET /admin/quotes", adminHandler.RequireAdmin(adminHandler.ListQuotes))
	mux.HandleFunc("GET /admin/quotes/{id}", adminHandler.RequireAdmin(adminHandler.QuoteDetail))
	mux.HandleFunc("POST /admin/quotes/{id}/send", adminHandler.RequireAdmin(adminHandler.SendQuote))
	mux.HandleFunc("POST /admin/quotes/{id}/promote", adminHandler.RequireAdmin(adminHandler.PromoteQuote))
	mux.HandleFunc("POST /admin/quotes/{id}/status", adminHandler.RequireAdmin(adminHandler.UpdateQuoteStatus))

	mux.HandleFunc("GET /admin/orders", adminHandler.RequireAdmin(adminHandler.ListOrders))
	mux.HandleFunc("GET /admin/orders/new", adminHandler.RequireAdmin(adminHandler.NewOrderForm))
	mux.HandleFunc("POST /admin/orders", adminHandler.RequireAdmin(adminHandler.CreateOrder))
	mux.HandleFunc("GET /admin/orders/{id}", adminHandler.RequireAdmin(adminHandler.OrderDetail))
	mux.HandleFunc("POST /admin/orders/{id}/status", adminHandler.RequireAdmin(adminHandler.UpdateOrderStatus))
	mux.HandleFunc("POST /admin/orders/{id}/details", adminHandler.RequireAdmin(adminHandler.UpdateOrderDetails))
	mux.HandleFunc("POST /admin/orders/{id}/paid", adminHandler.RequireAdmin(adminHandler.MarkOrderPaid))
	mux.HandleFunc("POST /admin/orders/{id}/receipt", adminHandler.RequireAdmin(adminHandler.ResendReceipt))
	mux.HandleFunc("GET /admin/orders/{id}/label", adminHandler.RequireAdmin(adminHandler.OrderLabel))

	mux.HandleFunc("GET /admin/customers", adminHandler.RequireAdmin(adminHandler.ListCustomers))
	mux.HandleFunc("GET /admin/customers/{id}", adminHandler.RequireAdmin(adminHandler.CustomerDetail))
	mux.HandleFunc("POST /admin/customers/{id}", adminHandler.RequireAdmin(adminHandler.UpdateCustomer))

	mux.HandleFunc("GET /admin/materials", adminHandler.RequireAdmin(adminHandler.ListMaterials))
	mux.HandleFunc("GET /admin/materials/new", adminHandler.RequireAdmin(adminHandler.NewMaterialForm))
	mux.HandleFunc("POST /admin/materials", adminHandler.RequireAdmin(adminHandler.CreateMaterial))
	mux.HandleFunc("GET /admin/materials/{id}/edit", adminHandler.RequireAdmin(adminHandler.EditMaterialForm))
	mux.HandleFunc("POST /admin/materials/{id}", adminHandler.RequireAdmin(adminHandler.UpdateMaterial))
	mux.HandleFunc("POST /admin/materials/{id}/archive", adminHandler.RequireAdmin(adminHandler.ArchiveMaterial))

	// 7. Middleware chain: Logger -> Security Headers -> CSRF -> Mux
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(
			CSRF(mux),
		),
	)

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
