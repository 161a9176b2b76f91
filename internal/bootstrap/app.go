package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "lexguard-backend/internal/auth"
	"lexguard-backend/internal/compliance"
	"lexguard-backend/internal/documents"
	"lexguard-backend/internal/llm"
	openai "lexguard-backend/internal/llm/openai"
	"lexguard-backend/internal/monitor"
	"lexguard-backend/internal/shared/config"
	"lexguard-backend/internal/shared/server"
	"lexguard-backend/internal/shared/storage/db"
	"lexguard-backend/internal/shared/storage/object"
	localstore "lexguard-backend/internal/shared/storage/object/local"
	s3store "lexguard-backend/internal/shared/storage/object/s3"
	"lexguard-backend/internal/tasks"
	"lexguard-backend/internal/users"
)

const scanConcurrency = 4

// App holds shared dependencies for the API and monitor processes.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Tasks             *tasks.Runner
	DocumentsRepo     documents.DocumentsRepo
	ComplianceRepo    compliance.Repo
	UsersRepo         users.Repo
	DocumentsService  *documents.Service
	ComplianceService *compliance.Service
	UsersService      *users.Service
	MonitorLoop       *monitor.Loop
	DocumentsHandler  *documents.Handler
	ComplianceHandler *compliance.Handler
	UsersHandler      *users.Handler
	GoogleAuth        *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Tasks:  tasks.NewRunner(scanConcurrency),
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		DocumentHandler:   app.DocumentsHandler,
		ComplianceHandler: app.ComplianceHandler,
		UserHandler:       app.UsersHandler,
		GoogleAuth:        app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var docRepo documents.DocumentsRepo
	var complianceRepo compliance.Repo
	var userRepo users.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		complianceRepo = &compliance.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		complianceRepo = compliance.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	docSvc := &documents.Service{
		Store:           app.Store,
		Repo:            docRepo,
		StorageProvider: app.Config.ObjectStoreType,
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if app.Config.LLMProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel)
		if err != nil {
			return err
		}
		llmClient = openaiClient
	}

	complianceSvc := &compliance.Service{
		Repo:          complianceRepo,
		DocRepo:       docRepo,
		Store:         app.Store,
		LLM:           llmClient,
		Tasks:         app.Tasks,
		Cache:         compliance.NewResultCache(app.Config.ResultCacheTTL),
		Policy:        compliance.DefaultPolicy(),
		Provider:      app.Config.LLMProvider,
		Model:         app.Config.LLMModel,
		PromptVersion: app.Config.PromptVersion,
	}

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.DocumentsRepo = docRepo
	app.ComplianceRepo = complianceRepo
	app.UsersRepo = userRepo
	app.DocumentsService = docSvc
	app.ComplianceService = complianceSvc
	app.UsersService = userSvc
	app.MonitorLoop = &monitor.Loop{
		Docs:       docRepo,
		Checker:    complianceSvc,
		Interval:   app.Config.MonitorInterval,
		BatchLimit: app.Config.MonitorBatchLimit,
	}
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.ComplianceHandler = compliance.NewHandler(complianceSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc

	if app.DocumentsHandler == nil || app.ComplianceHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}
