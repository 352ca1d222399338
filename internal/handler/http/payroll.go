package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler struct {
	payrollService payroll.Service
	batchService   payroll.BatchService
}

func NewPayrollHandler(payrollService payroll.Service, batchService payroll.BatchService) PayrollHandler {
	return PayrollHandler{
		payrollService: payrollService,
		batchService:   batchService,
	}
}

func (h *PayrollHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	userID, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var req payroll.CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	record, err := h.payrollService.CreateRecord(r.Context(), companyID, userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll record created", record)
}

func (h *PayrollHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	record, err := h.payrollService.GetRecord(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, record)
}

func (h *PayrollHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	filter := parseFilter(r)
	result, err := h.payrollService.ListRecords(r.Context(), companyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := int(result.TotalCount) / result.Limit
	if int(result.TotalCount)%result.Limit > 0 {
		totalPages++
	}
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

func (h *PayrollHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	userID, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var req payroll.UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	record, err := h.payrollService.UpdateRecord(r.Context(), companyID, userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record updated", record)
}

func (h *PayrollHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	userID, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	if err := h.payrollService.DeleteRecord(r.Context(), companyID, userID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record deleted", nil)
}

func (h *PayrollHandler) ProcessRecord(w http.ResponseWriter, r *http.Request) {
	userID, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	record, err := h.payrollService.ProcessRecord(r.Context(), companyID, userID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record processed", record)
}

func (h *PayrollHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var req payroll.MarkPaidRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}

	record, err := h.payrollService.MarkPaid(r.Context(), companyID, userID, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record marked paid", record)
}

func (h *PayrollHandler) RenderPayslip(w http.ResponseWriter, r *http.Request) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	content, err := h.payrollService.RenderPayslip(r.Context(), companyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, "payslip_"+id+".pdf", "application/pdf", content)
}

func (h *PayrollHandler) GetYTD(w http.ResponseWriter, r *http.Request) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	fiscalYear, ok := queryInt(r, "fiscal_year")
	if !ok {
		response.BadRequest(w, "fiscal_year is required", nil)
		return
	}

	totals, err := h.payrollService.GetYTD(r.Context(), companyID, chi.URLParam(r, "employeeId"), fiscalYear)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, totals)
}

func (h *PayrollHandler) RenderAnnualStatement(w http.ResponseWriter, r *http.Request) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	fiscalYear, ok := queryInt(r, "fiscal_year")
	if !ok {
		response.BadRequest(w, "fiscal_year is required", nil)
		return
	}

	employeeID := chi.URLParam(r, "employeeId")
	content, err := h.payrollService.RenderAnnualStatement(r.Context(), companyID, employeeID, fiscalYear)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, "annual_statement_"+employeeID+".pdf", "application/pdf", content)
}

func (h *PayrollHandler) PeriodSummary(w http.ResponseWriter, r *http.Request) {
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

	summary, err := h.payrollService.PeriodSummary(r.Context(), companyID, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}

func (h *PayrollHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	userID, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var req payroll.RunBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	summary, err := h.batchService.RunBatch(r.Context(), companyID, req.PeriodMonth, req.PeriodYear, userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll batch completed", summary)
}

func (h *PayrollHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	_, companyID, err := requestActor(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	batch, err := h.batchService.GetBatch(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, batch)
}

func parseFilter(r *http.Request) payroll.Filter {
	var filter payroll.Filter
	if month, ok := queryInt(r, "month"); ok {
		filter.PeriodMonth = &month
	}
	if year, ok := queryInt(r, "year"); ok {
		filter.PeriodYear = &year
	}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := payroll.Status(statusParam)
		filter.Status = &status
	}
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if page, ok := queryInt(r, "page"); ok {
		filter.Page = page
	}
	if limit, ok := queryInt(r, "limit"); ok {
		filter.Limit = limit
	}
	return filter
}

func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
