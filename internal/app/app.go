// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/kodflix/kodflix/internal/auth"
	"github.com/kodflix/kodflix/internal/config"
	"github.com/kodflix/kodflix/internal/database"
	"github.com/kodflix/kodflix/internal/handler"
	"github.com/kodflix/kodflix/internal/logger"
	"github.com/kodflix/kodflix/internal/metrics"
	"github.com/kodflix/kodflix/internal/middleware"
	"github.com/kodflix/kodflix/internal/repository"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にもログを使えるよう、先にデフォルトレベルで初期化する
	logger.SetupDefault(w, "info")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// 永続化バックエンドを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. 永続化バックエンドの初期化
	// DATABASE_URLが設定されている場合はPostgreSQL、
	// それ以外はJSONファイルストアを使用する。
	var userRepo repository.UserRepository
	var db *sql.DB

	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		userRepo = repository.NewPostgresUserRepo(db)
		slog.Info("database connection established")
	} else {
		fileRepo, err := repository.NewFileUserRepo(cfg.UserStoreFile)
		if err != nil {
			return fmt.Errorf("failed to open user store file: %w", err)
		}
		userRepo = fileRepo
		slog.Info("file user store opened",
			slog.String("path", cfg.UserStoreFile),
		)
	}

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. 認証コンポーネントの初期化
	// 署名シークレットは起動時に一度だけ注入し、以後変更しない。
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	authService := auth.NewService(userRepo, hasher, tokens, collector,
		auth.ServiceConfig{MinPasswordLength: cfg.MinPasswordLength},
	)

	// 4. レートリミッターの初期化（req/min -> req/secに変換）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitAuth > 0 {
		rateLimiterCfg.AuthRate = rate.Limit(float64(cfg.RateLimitAuth) / 60.0)
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 5. ルーターの構築
	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}

	router := handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:     tokens,
		AccountFinder:     userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		RequestTimeout:    cfg.RequestTimeout,

		AuthService: authService,

		HealthPinger: pinger,
		Metrics:      collector,
		Gatherer:     registry,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
// ファイルストア構成（DATABASE_URL未設定）では実行できない。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("migrate requires DATABASE_URL to be set")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
