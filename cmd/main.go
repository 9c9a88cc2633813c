package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"orbitdrive/internal/blob"
	"orbitdrive/internal/config"
	"orbitdrive/internal/handler"
	"orbitdrive/internal/preview"
	"orbitdrive/internal/repository"
	"orbitdrive/internal/service"
)

func connectWithRetry(cfg *config.Config, maxAttempts int, delay time.Duration) (*sqlx.DB, error) {
	dsn := cfg.Database.GetDSN()

	// Сначала подключаемся к системной базе postgres, она существует всегда
	pgDSN := strings.Replace(dsn, "dbname="+cfg.Database.Name, "dbname=postgres", 1)
	pgDB, err := sqlx.Connect("postgres", pgDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres database: %v", err)
	}
	defer pgDB.Close()

	var exists bool
	err = pgDB.Get(&exists, "SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1)", cfg.Database.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %v", err)
	}

	if !exists {
		log.Printf("Database %s does not exist, creating...", cfg.Database.Name)
		_, err = pgDB.Exec("CREATE DATABASE " + cfg.Database.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	var db *sqlx.DB
	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxAttempts, err)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %v", maxAttempts, err)
}

func runMigrations(cfg *config.Config) error {
	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	var m *migrate.Migrate
	var err error

	for i := 0; i < 5; i++ {
		m, err = migrate.New("file://migrations", databaseURL)
		if err == nil {
			break
		}
		log.Printf("Failed to create migrate instance (attempt %d/5): %v", i+1, err)
		time.Sleep(time.Second * 5)
	}

	if err != nil {
		return fmt.Errorf("failed to create migrate instance after retries: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		log.Printf("Found dirty database state at version %d, attempting to force version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func newBlobStorage(cfg *config.Config) (blob.Storage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return blob.NewS3Storage(blob.S3Config{
			Endpoint:        cfg.Storage.S3Endpoint,
			Region:          cfg.Storage.S3Region,
			AccessKeyID:     cfg.Storage.S3AccessKeyID,
			SecretAccessKey: cfg.Storage.S3SecretAccessKey,
			Bucket:          cfg.Storage.S3Bucket,
		})
	default:
		return blob.NewFSStorage(cfg.Storage.BlobDir)
	}
}

func main() {
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := connectWithRetry(appConfig, 5, time.Second*5)
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	if err := runMigrations(appConfig); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Бэкенд блобов: локальный диск или S3-совместимое хранилище
	storage, err := newBlobStorage(appConfig)
	if err != nil {
		log.Fatalf("Failed to create blob storage: %v", err)
	}

	// Инициализация репозиториев
	userRepo := repository.NewUserRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	fileRepo := repository.NewFileRepository(db)
	trashRepo := repository.NewTrashRepository(db)

	// Инициализация сервисов
	userService := service.NewUserService(userRepo)
	folderService := service.NewFolderService(folderRepo, fileRepo, userRepo)
	fileService := service.NewFileService(fileRepo, folderRepo, userRepo, storage)
	trashService := service.NewTrashService(trashRepo, storage)
	adminService := service.NewAdminService(userRepo)

	previewService, err := preview.NewService(storage, fileRepo, appConfig.Storage.PreviewDir)
	if err != nil {
		log.Fatalf("Failed to create preview service: %v", err)
	}

	done := make(chan struct{})
	previewService.StartCleanupTask(done)

	// Инициализация хендлеров
	folderHandler := handler.NewFolderHandler(folderService)
	fileHandler := handler.NewFileHandler(fileService)
	trashHandler := handler.NewTrashHandler(trashService)
	quotaHandler := handler.NewQuotaHandler(userService)
	adminHandler := handler.NewAdminHandler(adminService, trashService, appConfig.Trash.RetentionDays)
	previewHandler := handler.NewPreviewHandler(previewService)

	// Настройка HTTP роутера
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// HTTP маршруты
	r.Route("/v1", func(r chi.Router) {
		r.Post("/files", fileHandler.UploadFile)

		r.Route("/files/{uuid}", func(r chi.Router) {
			r.Get("/", fileHandler.DownloadFile)
			r.Get("/info", fileHandler.GetFileInfo)
			r.Get("/preview", previewHandler.GetPreview)
			r.Put("/rename", fileHandler.RenameFile)
			r.Put("/move", fileHandler.MoveFile)
			r.Delete("/", fileHandler.DeleteFile)
		})

		r.Get("/folders", folderHandler.GetFolderContents)
		r.Post("/folders", folderHandler.CreateFolder)
		r.Get("/folders/{uuid}", folderHandler.GetFolderContents)
		r.Put("/folders/{uuid}/rename", folderHandler.RenameFolder)
		r.Put("/folders/{uuid}/move", folderHandler.MoveFolder)
		r.Delete("/folders/{uuid}", folderHandler.DeleteFolder)

		r.Route("/trash", func(r chi.Router) {
			r.Get("/", trashHandler.GetTrash)
			r.Post("/restore", trashHandler.RestoreItem)
			r.Post("/delete", trashHandler.DeleteItem)
		})

		r.Route("/quota", func(r chi.Router) {
			r.Get("/", quotaHandler.GetStorageInfo)
			r.Put("/plan", quotaHandler.UpdatePlan)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", adminHandler.GetUsers)
			r.Get("/stats", adminHandler.GetStats)
			r.Post("/trash/cleanup", adminHandler.RunTrashCleanup)
		})
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Фоновая чистка корзины по сроку хранения
	go func() {
		interval := time.Duration(appConfig.Trash.CleanupInterval) * time.Minute
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				result, err := trashService.CleanupOldTrash(context.Background(), appConfig.Trash.RetentionDays)
				if err != nil {
					log.Printf("[Cleanup] trash cleanup failed: %v", err)
					continue
				}
				if result.FilesPurged > 0 || result.FoldersPurged > 0 {
					log.Printf("[Cleanup] purged %d files, %d folders, freed %s",
						result.FilesPurged, result.FoldersPurged, service.FormatBytes(result.BytesFreed))
				}
			case <-done:
				return
			}
		}
	}()

	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down servers...")
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Servers stopped")
}
