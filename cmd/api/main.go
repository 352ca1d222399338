package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/payroll-engine-go/internal/config"
	appHTTP "github.com/cmlabs-hris/payroll-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/payroll-engine-go/internal/service/document"
	payrollService "github.com/cmlabs-hris/payroll-engine-go/internal/service/payroll"
	reportService "github.com/cmlabs-hris/payroll-engine-go/internal/service/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "payroll-engine"),
	)

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	// A bad encryption key must stop the boot; records written without a
	// working codec could never be decrypted again.
	codec, err := crypto.NewCodec(crypto.NewStaticKeyProvider(cfg.Encryption.Key))
	if err != nil {
		log.Fatal("Failed to initialize field encryption:", err)
	}

	recordRepo := postgresql.NewRecordRepository(db)
	batchRepo := postgresql.NewBatchRepository(db)
	ytdRepo := postgresql.NewYTDRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	auditSink := postgresql.NewAuditSink(db, logger)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	renderer := document.NewRenderer()
	notifier := payrollService.NewLogNotifier(logger)

	payrollSvc := payrollService.NewService(
		db,
		recordRepo,
		ytdRepo,
		employeeRepo,
		companyRepo,
		codec,
		renderer,
		auditSink,
		logger,
	)
	batchSvc := payrollService.NewBatchService(
		recordRepo,
		batchRepo,
		employeeRepo,
		companyRepo,
		codec,
		notifier,
		auditSink,
		logger,
		cfg.Batch.Workers,
	)
	reportSvc := reportService.NewService(recordRepo, employeeRepo, companyRepo, codec, logger)

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc, batchSvc)
	reportHandler := appHTTP.NewReportHandler(reportSvc)

	router := appHTTP.NewRouter(JWTService, payrollHandler, reportHandler)

	scheduler := cron.NewScheduler()
	cron.NewPayrollJobs(batchSvc).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{Addr: port, Handler: router}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	if err := server.Close(); err != nil {
		fmt.Println("Server shutdown error:", err)
	}
}
