package http

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine-go/internal/service/report"
	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	reportService report.Service
}

func NewReportHandler(reportService report.Service) ReportHandler {
	return ReportHandler{reportService: reportService}
}

func (h *ReportHandler) BankExport(w http.ResponseWriter, r *http.Request) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	file, err := h.reportService.BankExport(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, file.Name, "text/csv", file.Content)
}

func (h *ReportHandler) Form24Q(w http.ResponseWriter, r *http.Request) {
	h.quarterly(w, r, h.reportService.Form24Q)
}

func (h *ReportHandler) Form941(w http.ResponseWriter, r *http.Request) {
	h.quarterly(w, r, h.reportService.Form941)
}

func (h *ReportHandler) PFECR(w http.ResponseWriter, r *http.Request) {
	h.monthly(w, r, h.reportService.PFECR)
}

func (h *ReportHandler) ESIContributions(w http.ResponseWriter, r *http.Request) {
	h.monthly(w, r, h.reportService.ESIContributions)
}

func (h *ReportHandler) StateTax(w http.ResponseWriter, r *http.Request) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	state := r.URL.Query().Get("state")
	quarter, okQuarter := queryInt(r, "quarter")
	year, okYear := queryInt(r, "year")
	if state == "" || !okQuarter || !okYear {
		response.BadRequest(w, "state, quarter and year are required", nil)
		return
	}

	file, err := h.reportService.StateTax(r.Context(), companyID, state, quarter, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, file.Name, "text/csv", file.Content)
}

type quarterlyReport func(ctx context.Context, companyID string, quarter, year int) (report.ExportFile, error)

func (h *ReportHandler) quarterly(w http.ResponseWriter, r *http.Request, generate quarterlyReport) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	quarter, okQuarter := queryInt(r, "quarter")
	year, okYear := queryInt(r, "year")
	if !okQuarter || !okYear {
		response.BadRequest(w, "quarter and year are required", nil)
		return
	}

	file, err := generate(r.Context(), companyID, quarter, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, file.Name, "text/csv", file.Content)
}

type monthlyReport func(ctx context.Context, companyID string, month, year int) (report.ExportFile, error)

func (h *ReportHandler) monthly(w http.ResponseWriter, r *http.Request, generate monthlyReport) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	month, okMonth := queryInt(r, "month")
	year, okYear := queryInt(r, "year")
	if !okMonth || !okYear {
		response.BadRequest(w, "month and year are required", nil)
		return
	}

	file, err := generate(r.Context(), companyID, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, file.Name, "text/csv", file.Content)
}
