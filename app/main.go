package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/newsdesk/app/api"
	"github.com/lysyi3m/newsdesk/app/auth"
	"github.com/lysyi3m/newsdesk/app/cfg"
	"github.com/lysyi3m/newsdesk/app/comments"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/database/mongostore"
	"github.com/lysyi3m/newsdesk/app/news"
	"github.com/lysyi3m/newsdesk/app/tasks"
	"github.com/lysyi3m/newsdesk/app/telemetry"
)

// store bundles the repositories of the selected backend.
type store struct {
	articles database.ArticleRepository
	comments database.CommentRepository
	health   database.HealthChecker
	close    func()
}

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)
	if !appCfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(appCfg); err != nil {
		slog.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

// run wires the service and blocks until shutdown. Resources opened here are
// closed before it returns, including on startup errors.
func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting newsdesk", "version", appCfg.Version, "store", appCfg.Store, "port", appCfg.Port)

	shutdownTracing, err := telemetry.Init(telemetry.Config{Enabled: appCfg.Trace, Version: appCfg.Version})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			slog.Error("Tracing shutdown error", "error", err)
		}
	}()

	ctx := context.Background()

	orphans, err := comments.ParseOrphanPolicy(appCfg.OrphanReplies)
	if err != nil {
		return err
	}
	nesting, err := comments.ParseReplyNesting(appCfg.ReplyNesting)
	if err != nil {
		return err
	}

	roles := auth.NewRoleDirectory(appCfg.RolesFile)
	if err := roles.Load(); err != nil {
		return fmt.Errorf("failed to load roles: %w", err)
	}

	st, err := openStore(ctx, appCfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.close()

	sessions, err := auth.OpenSessionStore(appCfg.SessionDir, appCfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			slog.Error("Failed to close session store", "error", err)
		}
	}()

	authenticator := auth.NewLazyAuthenticator(auth.OIDCConfig{
		ClientID:     appCfg.OIDCClientID,
		ClientSecret: appCfg.OIDCClientSecret,
		Issuer:       appCfg.OIDCIssuer,
		AuthURL:      appCfg.OIDCAuthURL,
		TokenURL:     appCfg.OIDCTokenURL,
		JWKSURL:      appCfg.OIDCJWKSURL,
		UserInfoURL:  appCfg.OIDCUserInfoURL,
		RedirectURL:  appCfg.OIDCRedirectURL,
	}, roles)
	if err := authenticator.Prepare(ctx); err != nil {
		slog.Warn("Identity provider not ready, login will retry on demand", "provider", appCfg.OIDCClientName, "error", err)
	}

	searchClient := news.NewSearchClient(
		&http.Client{Timeout: appCfg.SearchTimeout},
		appCfg.SearchURL, appCfg.NYTAPIKey, "newsdesk/"+appCfg.Version, appCfg.SearchRate)
	ingester := news.NewIngester(searchClient, st.articles, st.comments, appCfg.DefaultQuery)
	commentService := comments.NewService(st.comments, comments.TreeOptions{Orphans: orphans, Nesting: nesting})

	var roleLoader tasks.RoleLoader
	if appCfg.RolesFile != "" {
		roleLoader = roles
	}

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "warm_queries", len(appCfg.WarmQueries))
	scheduler := tasks.NewScheduler(tasks.SchedulerConfig{
		Interval:     time.Duration(appCfg.SchedulerInterval) * time.Second,
		WorkerCount:  appCfg.WorkerCount,
		WarmQueries:  appCfg.WarmQueries,
		WarmInterval: time.Duration(appCfg.WarmInterval) * time.Second,
	}, ingester, sessions, roleLoader)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(ingester, commentService, st.articles, st.health, sessions, authenticator, api.Settings{
		NYTAPIKey:     appCfg.NYTAPIKey,
		FrontendURL:   appCfg.AllowedOrigin,
		ProviderName:  appCfg.OIDCClientName,
		SessionTTL:    appCfg.SessionTTL,
		SecureCookies: appCfg.SecureCookies,
		Version:       appCfg.Version,
	})

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.AllowedOrigin),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "base_url", appCfg.BaseUrl)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serveErr = <-serverErrChan:
		slog.Error("Server error", "error", serveErr)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	return serveErr
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func openStore(ctx context.Context, appCfg *cfg.Cfg) (*store, error) {
	switch appCfg.Store {
	case cfg.StoreMongo:
		client, err := mongostore.Connect(ctx, appCfg.MongoURI, appCfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			client.Close(context.Background())
			return nil, err
		}
		slog.Info("Connected to MongoDB", "database", appCfg.MongoDatabase)

		return &store{
			articles: client.Articles(),
			comments: client.Comments(),
			health:   client,
			close: func() {
				if err := client.Close(context.Background()); err != nil {
					slog.Error("Failed to disconnect from MongoDB", "error", err)
				}
			},
		}, nil

	default:
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			return nil, err
		}

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		slog.Info("Connected to SQLite", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

		return &store{
			articles: database.NewArticleRepository(db),
			comments: database.NewCommentRepository(db),
			health:   db,
			close: func() {
				if err := db.Close(); err != nil {
					slog.Error("Failed to close database", "error", err)
				}
			},
		}, nil
	}
}
