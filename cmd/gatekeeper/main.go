package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/gatekeeper/internal/alert"
	"github.com/dropDatabas3/gatekeeper/internal/auth"
	"github.com/dropDatabas3/gatekeeper/internal/cache"
	"github.com/dropDatabas3/gatekeeper/internal/captcha"
	"github.com/dropDatabas3/gatekeeper/internal/config"
	"github.com/dropDatabas3/gatekeeper/internal/domain/repository"
	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/http/handlers"
	"github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	"github.com/dropDatabas3/gatekeeper/internal/http/router"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/rate"
	"github.com/dropDatabas3/gatekeeper/internal/rememberme"
	"github.com/dropDatabas3/gatekeeper/internal/session"
	"github.com/dropDatabas3/gatekeeper/internal/store/memory"
	"github.com/dropDatabas3/gatekeeper/internal/store/pg"
	migrations "github.com/dropDatabas3/gatekeeper/migrations/postgres"
)

// buildLimiter elige el backend del limiter según el cache configurado:
// con Redis el límite es compartido entre réplicas, en memoria es local.
func buildLimiter(cfg *config.Config, c cache.Client) rate.Limiter {
	type redisHolder interface{ Redis() *redis.Client }
	if rc, ok := c.(redisHolder); ok {
		return rate.NewRedisLimiter(rc.Redis(), "rl:login:", cfg.Rate.Login.Limit, cfg.RateLoginWindow())
	}
	return rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.RateLoginWindow())
}

func main() {
	var (
		configPath = flag.String("config", "", "ruta al config.yaml (vacío = solo env)")
		envFile    = flag.String("env-file", "", "archivo .env a cargar antes de leer config")
		migrate    = flag.Bool("migrate", false, "aplicar migraciones de esquema y seguir")
		printCfg   = flag.Bool("print-config", false, "mostrar la config efectiva y salir")
	)
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "env-file: %v\n", err)
			os.Exit(1)
		}
	} else {
		// .env del directorio actual si existe; silencioso si no.
		_ = godotenv.Load()
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if *printCfg {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "print-config: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "gatekeeper"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx := context.Background()

	// ---- Repositorios ----
	var (
		users  repository.UserRepository
		tokens repository.TokenRepository
	)
	switch cfg.Storage.Driver {
	case "postgres":
		store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			log.Fatal("postgres init failed", logger.Err(err))
		}
		defer store.Close()

		if *migrate || cfg.Flags.Migrate {
			sub, err := fs.Sub(migrations.FS, ".")
			if err != nil {
				log.Fatal("migrations fs", logger.Err(err))
			}
			if err := store.RunMigrations(ctx, sub); err != nil {
				log.Fatal("migrations failed", logger.Err(err))
			}
		}
		users = pg.NewUserRepo(store)
		tokens = pg.NewTokenRepo(store)
	default:
		log.Warn("using in-memory storage, state is lost on restart")
		users = memory.NewUserRepo()
		tokens = memory.NewTokenRepo()
	}

	// ---- Cache (códigos de verificación) ----
	cacheTTL, _ := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
	cacheClient, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cacheTTL,
	})
	if err != nil {
		log.Fatal("cache init failed", logger.Err(err))
	}
	defer cacheClient.Close()

	// ---- Notificador de alertas ----
	var notifier alert.Notifier = alert.ZapNotifier{}
	if cfg.SMTP.Host != "" && cfg.SMTP.To != "" {
		notifier = alert.Multi{alert.ZapNotifier{}, &alert.SMTPNotifier{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			To:                 cfg.SMTP.To,
			User:               cfg.SMTP.Username,
			Pass:               cfg.SMTP.Password,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		}}
	}

	// ---- Núcleo ----
	registry := session.NewRegistry(cfg.Session.MaxSessions, cfg.SessionTTL())
	registry.AddListener(session.ListenerFunc(func(sid string) {
		httpx.CountEviction()
		log.Info("session evicted by concurrency cap", logger.SessionID(sid))
	}))

	remember := rememberme.NewService(tokens, notifier, cfg.RememberTTL())
	verifier := auth.NewVerifier(users)
	codes := captcha.NewService(cacheClient, cfg.Captcha.Length, cfg.CaptchaTTL(),
		cfg.Captcha.Width, cfg.Captcha.Height)

	// ---- Rate limit de login ----
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter = buildLimiter(cfg, cacheClient)
	}

	// ---- HTTP ----
	metricsHandler, err := httpx.RegisterMetrics(nil)
	if err != nil {
		log.Fatal("metrics init failed", logger.Err(err))
	}

	cookies := httpx.CookieConfig{
		Domain:   cfg.Session.Domain,
		SameSite: cfg.Session.SameSite,
		Secure:   cfg.Session.Secure,
	}

	gate := &handlers.Gate{
		Verifier: verifier,
		Registry: registry,
		Remember: remember,
		Captcha:  codes,
		Keys: handlers.LoginKeys{
			Username: cfg.Login.UsernameKey,
			Password: cfg.Login.PasswordKey,
			Captcha:  cfg.Login.CaptchaKey,
			Remember: cfg.Login.RememberKey,
		},
		Cookies:        cookies,
		SessionCookie:  cfg.Session.CookieName,
		RememberCookie: cfg.Remember.CookieName,
		CaptchaCookie:  cfg.Captcha.CookieName,
		RememberTTL:    cfg.RememberTTL(),
		CaptchaTTL:     cfg.CaptchaTTL(),
	}

	handler := router.New(router.Config{
		Gate:  gate,
		Admin: &handlers.Admin{Registry: registry, Remember: remember},
		Guard: middlewares.GuardConfig{
			Registry:       registry,
			Remember:       remember,
			SessionCookie:  cfg.Session.CookieName,
			RememberCookie: cfg.Remember.CookieName,
			Cookies:        cookies,
			RememberTTL:    cfg.RememberTTL(),
		},
		LoginPath:   cfg.Login.Path,
		LogoutPath:  cfg.Login.LogoutPath,
		CaptchaPath: cfg.Captcha.Path,
		AdminAPIKey: cfg.Admin.APIKey,
		Limiter:     limiter,
		Metrics:     metricsHandler,
		TrustProxy:  cfg.Server.TrustProxyHeaders,
	})

	if err := httpx.Start(ctx, httpx.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.ReadTimeout(),
		WriteTimeout:    cfg.WriteTimeout(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
	}, handler); err != nil {
		log.Fatal("server error", logger.Err(err))
	}
}
