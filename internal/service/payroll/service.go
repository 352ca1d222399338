package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/postgresql"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type service struct {
	db        *database.DB
	records   payroll.RecordRepository
	ytd       payroll.YTDRepository
	employees employee.Repository
	companies company.Repository
	codec     *crypto.Codec
	renderer  payroll.DocumentRenderer
	auditor   audit.Sink
	logger    *slog.Logger
	runInTx   func(ctx context.Context, db *database.DB, fn func(tx pgx.Tx) error) error
}

func NewService(
	db *database.DB,
	records payroll.RecordRepository,
	ytd payroll.YTDRepository,
	employees employee.Repository,
	companies company.Repository,
	codec *crypto.Codec,
	renderer payroll.DocumentRenderer,
	auditor audit.Sink,
	logger *slog.Logger,
) payroll.Service {
	return &service{
		db:        db,
		records:   records,
		ytd:       ytd,
		employees: employees,
		companies: companies,
		codec:     codec,
		renderer:  renderer,
		auditor:   auditor,
		logger:    logger,
		runInTx:   postgresql.WithTransaction,
	}
}

func (s *service) CreateRecord(ctx context.Context, companyID, actor string, req payroll.CreateRecordRequest) (payroll.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RecordResponse{}, err
	}

	emp, err := s.employees.GetByID(ctx, req.EmployeeID, companyID)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	gross := req.BasicSalary.Add(req.HousingAllowance).Add(req.SpecialAllowance).Add(req.OtherAllowances)
	net := netSalary(gross, req.Deductions)
	if net.IsNegative() {
		return payroll.RecordResponse{}, validator.ValidationErrors{
			{Field: "deductions", Message: "deductions exceed gross salary"},
		}
	}

	attendance := req.Attendance
	if attendance.DaysInPeriod == 0 {
		attendance.DaysInPeriod = payroll.DaysInPeriod(req.PeriodMonth, req.PeriodYear)
		attendance.DaysWorked = attendance.DaysInPeriod
	}

	record := payroll.Record{
		EmployeeID:  req.EmployeeID,
		CompanyID:   companyID,
		PeriodMonth: req.PeriodMonth,
		PeriodYear:  req.PeriodYear,
		PayDate:     req.PayDate,
		IsBonus:     req.IsBonus,
		Deductions:  req.Deductions,
		Attendance:  attendance,
		Status:      payroll.StatusDraft,
		Notes:       req.Notes,
	}
	if err := s.encryptAmounts(&record, req.BasicSalary, req.HousingAllowance, req.SpecialAllowance, req.OtherAllowances, gross, net); err != nil {
		return payroll.RecordResponse{}, err
	}
	if err := s.encryptBank(&record, emp.BankAccountNumber, emp.RoutingCode); err != nil {
		return payroll.RecordResponse{}, err
	}

	created, err := s.records.Create(ctx, record)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	created.EmployeeName = &emp.FullName
	created.EmployeeCode = &emp.EmployeeCode

	s.auditor.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "payroll_record.create",
		Resource:   "payroll_record",
		ResourceID: created.ID,
		After: map[string]interface{}{
			"employee_id":  created.EmployeeID,
			"period_month": created.PeriodMonth,
			"period_year":  created.PeriodYear,
			"is_bonus":     created.IsBonus,
			"status":       created.Status,
		},
	})

	return s.toResponse(created), nil
}

func (s *service) GetRecord(ctx context.Context, companyID, id string) (payroll.RecordResponse, error) {
	record, err := s.records.GetByID(ctx, id, companyID)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	return s.toResponse(record), nil
}

func (s *service) ListRecords(ctx context.Context, companyID string, filter payroll.Filter) (payroll.ListRecordsResponse, error) {
	filter.Normalize()

	records, totalCount, err := s.records.List(ctx, companyID, filter)
	if err != nil {
		return payroll.ListRecordsResponse{}, err
	}

	responses := make([]payroll.RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, s.toResponse(record))
	}

	return payroll.ListRecordsResponse{
		Data:       responses,
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *service) UpdateRecord(ctx context.Context, companyID, actor string, req payroll.UpdateRecordRequest) (payroll.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RecordResponse{}, err
	}

	record, err := s.records.GetByID(ctx, req.ID, companyID)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	if record.Status == payroll.StatusPaid {
		return payroll.RecordResponse{}, payroll.ErrRecordAlreadyPaid
	}

	if req.TouchesAmounts() {
		if err := s.applyAmountPatch(&record, req); err != nil {
			return payroll.RecordResponse{}, err
		}
	}
	if req.Attendance != nil {
		record.Attendance = *req.Attendance
	}
	if req.BankAccountNumber != nil || req.RoutingCode != nil {
		account := crypto.SafeText(s.codec, record.BankAccountNumber)
		routing := crypto.SafeText(s.codec, record.RoutingCode)
		if req.BankAccountNumber != nil {
			account = *req.BankAccountNumber
		}
		if req.RoutingCode != nil {
			routing = *req.RoutingCode
		}
		if err := s.encryptBank(&record, account, routing); err != nil {
			return payroll.RecordResponse{}, err
		}
	}
	if req.PayDate != nil {
		record.PayDate = req.PayDate
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	if err := s.records.Save(ctx, record); err != nil {
		return payroll.RecordResponse{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "payroll_record.update",
		Resource:   "payroll_record",
		ResourceID: record.ID,
		After: map[string]interface{}{
			"employee_id":  record.EmployeeID,
			"period_month": record.PeriodMonth,
			"period_year":  record.PeriodYear,
		},
	})

	return s.toResponse(record), nil
}

// applyAmountPatch merges new earnings into the record and recomputes
// gross and net. Untouched components keep their stored values, which
// must decrypt for the recomputation to be meaningful.
func (s *service) applyAmountPatch(record *payroll.Record, req payroll.UpdateRecordRequest) error {
	basic, err := record.BasicSalary.Reveal(s.codec)
	if err != nil {
		return err
	}
	housing, err := record.HousingAllowance.Reveal(s.codec)
	if err != nil {
		return err
	}
	special, err := record.SpecialAllowance.Reveal(s.codec)
	if err != nil {
		return err
	}
	other, err := record.OtherAllowances.Reveal(s.codec)
	if err != nil {
		return err
	}

	if req.BasicSalary != nil {
		basic = *req.BasicSalary
	}
	if req.HousingAllowance != nil {
		housing = *req.HousingAllowance
	}
	if req.SpecialAllowance != nil {
		special = *req.SpecialAllowance
	}
	if req.OtherAllowances != nil {
		other = *req.OtherAllowances
	}
	if req.Deductions != nil {
		record.Deductions = *req.Deductions
	}

	gross := basic.Add(housing).Add(special).Add(other)
	net := netSalary(gross, record.Deductions)
	if net.IsNegative() {
		return validator.ValidationErrors{
			{Field: "deductions", Message: "deductions exceed gross salary"},
		}
	}

	return s.encryptAmounts(record, basic, housing, special, other, gross, net)
}

func (s *service) DeleteRecord(ctx context.Context, companyID, actor, id string) error {
	if err := s.records.Delete(ctx, id, companyID); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "payroll_record.delete",
		Resource:   "payroll_record",
		ResourceID: id,
	})

	return nil
}

func (s *service) ProcessRecord(ctx context.Context, companyID, actor, id string) (payroll.RecordResponse, error) {
	if err := s.records.Process(ctx, id, companyID); err != nil {
		return payroll.RecordResponse{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "payroll_record.process",
		Resource:   "payroll_record",
		ResourceID: id,
		Before:     map[string]interface{}{"status": payroll.StatusDraft},
		After:      map[string]interface{}{"status": payroll.StatusProcessed},
	})

	return s.GetRecord(ctx, companyID, id)
}

// MarkPaid finalizes the record and folds it into the employee's
// fiscal-year totals in one transaction, so a paid record is never
// missing from YTD and a failed accumulation never leaves a paid record.
func (s *service) MarkPaid(ctx context.Context, companyID, actor, id string, req payroll.MarkPaidRequest) (payroll.RecordResponse, error) {
	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	comp, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	err = s.runInTx(ctx, s.db, func(tx pgx.Tx) error {
		txCtx := context.WithValue(ctx, "tx", tx)

		record, err := s.records.GetByID(txCtx, id, companyID)
		if err != nil {
			return err
		}
		if err := s.records.MarkPaid(txCtx, id, companyID, paidAt); err != nil {
			return err
		}

		gross, err := record.GrossSalary.Reveal(s.codec)
		if err != nil {
			return fmt.Errorf("reveal gross salary: %w", err)
		}

		fiscalYear := payroll.FiscalYearFor(comp.Country, record.PeriodMonth, record.PeriodYear)
		return s.accumulateYTD(txCtx, companyID, record.EmployeeID, fiscalYear, payroll.Contribution{
			Gross:      gross,
			Deductions: record.Deductions,
		})
	})
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "payroll_record.mark_paid",
		Resource:   "payroll_record",
		ResourceID: id,
		Before:     map[string]interface{}{"status": payroll.StatusProcessed},
		After:      map[string]interface{}{"status": payroll.StatusPaid, "paid_at": paidAt},
	})

	return s.GetRecord(ctx, companyID, id)
}

// accumulateYTD adds one contribution to the locked fiscal-year row,
// creating it on first use. Totals only ever grow by addition; they are
// never recomputed from scratch here.
func (s *service) accumulateYTD(ctx context.Context, companyID, employeeID string, fiscalYear int, contribution payroll.Contribution) error {
	current, err := s.ytd.GetForUpdate(ctx, companyID, employeeID, fiscalYear)
	if err == payroll.ErrYTDNotFound {
		encrypted, err := crypto.NewEncryptedMoney(s.codec, contribution.Gross)
		if err != nil {
			return err
		}
		_, err = s.ytd.Create(ctx, payroll.YTD{
			CompanyID:     companyID,
			EmployeeID:    employeeID,
			FiscalYear:    fiscalYear,
			GrossEarnings: encrypted,
			Deductions:    contribution.Deductions,
		})
		return err
	}
	if err != nil {
		return err
	}

	gross, err := current.GrossEarnings.Reveal(s.codec)
	if err != nil {
		return fmt.Errorf("reveal ytd gross earnings: %w", err)
	}
	current.GrossEarnings, err = crypto.NewEncryptedMoney(s.codec, gross.Add(contribution.Gross))
	if err != nil {
		return err
	}
	current.Deductions = current.Deductions.Add(contribution.Deductions)

	return s.ytd.Save(ctx, current)
}

func (s *service) GetYTD(ctx context.Context, companyID, employeeID string, fiscalYear int) (payroll.YTDResponse, error) {
	totals, err := s.ytd.Get(ctx, companyID, employeeID, fiscalYear)
	if err != nil {
		return payroll.YTDResponse{}, err
	}

	return payroll.YTDResponse{
		EmployeeID:    totals.EmployeeID,
		FiscalYear:    totals.FiscalYear,
		GrossEarnings: crypto.SafeAmount(s.codec, totals.GrossEarnings),
		Deductions:    totals.Deductions,
		UpdatedAt:     totals.UpdatedAt,
	}, nil
}

func (s *service) PeriodSummary(ctx context.Context, companyID string, month, year int) (payroll.PeriodSummaryResponse, error) {
	if month < 1 || month > 12 {
		return payroll.PeriodSummaryResponse{}, payroll.ErrInvalidPeriod
	}

	records, err := s.records.ListForPeriods(ctx, companyID, []payroll.Period{{Month: month, Year: year}}, false)
	if err != nil {
		return payroll.PeriodSummaryResponse{}, err
	}

	summary := payroll.PeriodSummaryResponse{
		PeriodMonth: month,
		PeriodYear:  year,
		RecordCount: len(records),
		TotalGross:  decimal.Zero,
		TotalNet:    decimal.Zero,
	}
	for _, record := range records {
		switch record.Status {
		case payroll.StatusDraft:
			summary.DraftCount++
		case payroll.StatusProcessed:
			summary.ProcessedCount++
		case payroll.StatusPaid:
			summary.PaidCount++
		}
		summary.TotalGross = summary.TotalGross.Add(crypto.SafeAmount(s.codec, record.GrossSalary))
		summary.TotalNet = summary.TotalNet.Add(crypto.SafeAmount(s.codec, record.NetSalary))
		summary.TotalDeducted = summary.TotalDeducted.Add(record.Deductions.EmployeeTotal())
	}

	return summary, nil
}

func (s *service) RenderPayslip(ctx context.Context, companyID, recordID string) ([]byte, error) {
	record, err := s.records.GetByID(ctx, recordID, companyID)
	if err != nil {
		return nil, err
	}
	comp, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	data := payroll.PayslipData{
		CompanyName: comp.Name,
		PeriodMonth: record.PeriodMonth,
		PeriodYear:  record.PeriodYear,
		Deductions:  record.Deductions,
		Attendance:  record.Attendance,
		PaidAt:      record.PaidAt,
	}
	if record.EmployeeName != nil {
		data.EmployeeName = *record.EmployeeName
	}
	if record.EmployeeCode != nil {
		data.EmployeeCode = *record.EmployeeCode
	}
	if data.BasicSalary, err = record.BasicSalary.Reveal(s.codec); err != nil {
		return nil, err
	}
	if data.HousingAllowance, err = record.HousingAllowance.Reveal(s.codec); err != nil {
		return nil, err
	}
	if data.SpecialAllowance, err = record.SpecialAllowance.Reveal(s.codec); err != nil {
		return nil, err
	}
	if data.OtherAllowances, err = record.OtherAllowances.Reveal(s.codec); err != nil {
		return nil, err
	}
	if data.GrossSalary, err = record.GrossSalary.Reveal(s.codec); err != nil {
		return nil, err
	}
	if data.NetSalary, err = record.NetSalary.Reveal(s.codec); err != nil {
		return nil, err
	}

	return s.renderer.RenderPayslip(data)
}

func (s *service) RenderAnnualStatement(ctx context.Context, companyID, employeeID string, fiscalYear int) ([]byte, error) {
	comp, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	emp, err := s.employees.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return nil, err
	}
	totals, err := s.ytd.Get(ctx, companyID, employeeID, fiscalYear)
	if err != nil {
		return nil, err
	}

	gross, err := totals.GrossEarnings.Reveal(s.codec)
	if err != nil {
		return nil, err
	}

	label := fmt.Sprintf("%d", fiscalYear)
	if comp.Country == company.CountryIndia {
		label = fmt.Sprintf("FY %d-%02d", fiscalYear, (fiscalYear+1)%100)
	}

	return s.renderer.RenderAnnualStatement(payroll.AnnualStatementData{
		CompanyName:     comp.Name,
		EmployeeName:    emp.FullName,
		FiscalYear:      fiscalYear,
		FiscalYearLabel: label,
		GrossEarnings:   gross,
		Deductions:      totals.Deductions,
	})
}

// encryptAmounts stores the six monetary components on the record.
func (s *service) encryptAmounts(record *payroll.Record, basic, housing, special, other, gross, net decimal.Decimal) error {
	var err error
	if record.BasicSalary, err = crypto.NewEncryptedMoney(s.codec, basic); err != nil {
		return err
	}
	if record.HousingAllowance, err = crypto.NewEncryptedMoney(s.codec, housing); err != nil {
		return err
	}
	if record.SpecialAllowance, err = crypto.NewEncryptedMoney(s.codec, special); err != nil {
		return err
	}
	if record.OtherAllowances, err = crypto.NewEncryptedMoney(s.codec, other); err != nil {
		return err
	}
	if record.GrossSalary, err = crypto.NewEncryptedMoney(s.codec, gross); err != nil {
		return err
	}
	if record.NetSalary, err = crypto.NewEncryptedMoney(s.codec, net); err != nil {
		return err
	}
	return nil
}

func (s *service) encryptBank(record *payroll.Record, account, routing string) error {
	var err error
	if record.BankAccountNumber, err = crypto.NewEncryptedText(s.codec, account); err != nil {
		return err
	}
	if record.RoutingCode, err = crypto.NewEncryptedText(s.codec, routing); err != nil {
		return err
	}
	return nil
}

// toResponse decrypts a record for presentation. Decryption is best
// effort: unreadable amounts render as zero instead of failing the
// whole response.
func (s *service) toResponse(record payroll.Record) payroll.RecordResponse {
	return payroll.RecordResponse{
		ID:                record.ID,
		EmployeeID:        record.EmployeeID,
		EmployeeName:      record.EmployeeName,
		EmployeeCode:      record.EmployeeCode,
		PeriodMonth:       record.PeriodMonth,
		PeriodYear:        record.PeriodYear,
		PayDate:           record.PayDate,
		IsBonus:           record.IsBonus,
		BasicSalary:       crypto.SafeAmount(s.codec, record.BasicSalary),
		HousingAllowance:  crypto.SafeAmount(s.codec, record.HousingAllowance),
		SpecialAllowance:  crypto.SafeAmount(s.codec, record.SpecialAllowance),
		OtherAllowances:   crypto.SafeAmount(s.codec, record.OtherAllowances),
		GrossSalary:       crypto.SafeAmount(s.codec, record.GrossSalary),
		NetSalary:         crypto.SafeAmount(s.codec, record.NetSalary),
		Deductions:        record.Deductions,
		Attendance:        record.Attendance,
		BankAccountMasked: maskAccount(crypto.SafeText(s.codec, record.BankAccountNumber)),
		Status:            record.Status,
		BatchID:           record.BatchID,
		PaidAt:            record.PaidAt,
		Notes:             record.Notes,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}
