package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/internal/http/handlers"
	authmw "github.com/tixhive/auth-api/internal/http/middleware"
	"github.com/tixhive/auth-api/internal/platform/ledger"
	"github.com/tixhive/auth-api/internal/platform/mailer"
	"github.com/tixhive/auth-api/internal/platform/sms"
	"github.com/tixhive/auth-api/internal/repo/postgres"
	"github.com/tixhive/auth-api/internal/service"
	"github.com/tixhive/auth-api/internal/session"
	"github.com/tixhive/auth-api/pkg/config"
	"github.com/tixhive/auth-api/pkg/database"
	"github.com/tixhive/auth-api/pkg/events"
	"github.com/tixhive/auth-api/pkg/logger"
	mw "github.com/tixhive/auth-api/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MinConns, cfg.Database.MaxConns, cfg.Database.MaxLifetime)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// One NATS connection serves both the event bus and the ledger RPC
	// client.
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	bus := events.NewNATSEventBusWithConn(nc)
	defer bus.Close()

	ledgerClient := ledger.NewNATSClient(nc, cfg.Ledger.RequestTimeout)

	var smsSender sms.Sender = sms.NewDevSender()
	if !cfg.SMS.DevMode {
		smsSender = sms.NewTwilioSender(cfg.SMS.TwilioAccountSID, cfg.SMS.TwilioAuthToken, cfg.SMS.TwilioFrom)
	}

	var mailService mailer.Service = mailer.NewDevMailer()
	if !cfg.Email.DevMode {
		mailService = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	usersRepo := postgres.NewUsersRepo(pool)
	sessionsRepo := postgres.NewSessionsRepo(pool)
	reservationsRepo := postgres.NewReservationsRepo(pool)

	engine := session.NewEngine(sessionsRepo, map[domain.SessionKind]session.Params{
		domain.KindSignup:      {Alphabet: session.AlphabetReadable, Length: 6, TTL: cfg.Sessions.SignupTTL},
		domain.KindRecovery:    {Alphabet: session.AlphabetReadable, Length: 6, TTL: cfg.Sessions.RecoveryTTL},
		domain.KindLogin:       {Alphabet: session.AlphabetNumeric, Length: 6, TTL: cfg.Sessions.LoginTTL},
		domain.KindReservation: {Alphabet: session.AlphabetNumeric, Length: 6, TTL: cfg.Sessions.ReservationTTL},
	})

	secret := []byte(cfg.Auth.JWTSecret)
	authService := service.NewAuthService(usersRepo, engine, ledgerClient, bus, secret, cfg.Auth.TokenTTL, cfg.Ledger.NetworkSuffix)
	signupService := service.NewSignupService(usersRepo, engine, ledgerClient, smsSender, mailService, bus,
		secret, cfg.Auth.TokenTTL, cfg.Ledger.NetworkSuffix, cfg.Ledger.DepositAmount)
	reservationService := service.NewReservationService(reservationsRepo, engine)

	authHandler := handlers.NewAuthHandler(authService)
	signupHandler := handlers.NewSignupHandler(signupService)
	reservationHandler := handlers.NewReservationHandler(reservationService)

	codeLimiter := authmw.NewRateLimiter(rdb, authmw.RateLimitConfig{
		Requests: 5,
		Window:   time.Minute,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("auth-api"))
	r.Use(mw.Logging)
	r.Use(mw.Health(pool))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/{role}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Public code-issuing endpoints sit behind the limiter.
			r.Use(codeLimiter.Middleware())
			r.Post("/register-phone", signupHandler.RegisterPhone)
			r.Post("/create-recovery-code", signupHandler.CreateRecoveryCode)
			r.Post("/create-login-code", authHandler.CreateLoginCode)
		})
		r.Post("/check-username", authHandler.CheckUsername)
		r.Post("/signin", authHandler.Signin)
		r.Post("/signin-password", authHandler.SigninPassword)
		r.Post("/verify-login-code", authHandler.VerifyLoginCode)
		r.Post("/verify-phone", signupHandler.VerifyPhone)
		r.Post("/signup", signupHandler.Signup)
		r.Post("/verify-recovery-code", signupHandler.VerifyRecoveryCode)
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Use(authmw.RequireRoles(secret, domain.RoleBuyer))
		r.Mount("/", reservationHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down auth-api...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting auth-api", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
