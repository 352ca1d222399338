package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(jwtService jwt.Service, payrollHandler PayrollHandler, reportHandler ReportHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", "development"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/records", func(r chi.Router) {
					r.Get("/", payrollHandler.ListRecords)
					r.Post("/", payrollHandler.CreateRecord)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", payrollHandler.GetRecord)
						r.Patch("/", payrollHandler.UpdateRecord)
						r.Delete("/", payrollHandler.DeleteRecord)
						r.Post("/process", payrollHandler.ProcessRecord)
						r.Post("/mark-paid", payrollHandler.MarkPaid)
						r.Get("/payslip", payrollHandler.RenderPayslip)
					})
				})

				r.Route("/batches", func(r chi.Router) {
					r.Post("/", payrollHandler.RunBatch)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", payrollHandler.GetBatch)
						r.Get("/bank-export", reportHandler.BankExport)
					})
				})

				r.Route("/ytd/{employeeId}", func(r chi.Router) {
					r.Get("/", payrollHandler.GetYTD)
					r.Get("/statement", payrollHandler.RenderAnnualStatement)
				})

				r.Get("/summary", payrollHandler.PeriodSummary)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/form-24q", reportHandler.Form24Q)
				r.Get("/pf-ecr", reportHandler.PFECR)
				r.Get("/esi", reportHandler.ESIContributions)
				r.Get("/form-941", reportHandler.Form941)
				r.Get("/state-tax", reportHandler.StateTax)
			})
		})
	})
	return r
}
