package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
)

// achCreditCode is the NACHA transaction code for a checking credit.
const achCreditCode = "22"

// BankExport builds the funds-transfer file for one batch in the
// company's jurisdictional format. Only processed and paid records are
// eligible; drafts never reach a transfer file. A record whose account
// identifiers cannot be decrypted keeps its row with empty identifier
// fields, so the file's row count always matches the eligible count.
func (s *service) BankExport(ctx context.Context, companyID, batchID string) (ExportFile, error) {
	comp, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return ExportFile{}, err
	}

	records, err := s.records.ListByBatch(ctx, companyID, batchID, []payroll.Status{
		payroll.StatusProcessed, payroll.StatusPaid,
	})
	if err != nil {
		return ExportFile{}, err
	}

	var content string
	switch comp.Country {
	case company.CountryUS:
		content = s.achFile(comp, records)
	default:
		content = s.neftFile(records)
	}

	return ExportFile{
		Name:    fileName("bank_export", companyID, batchID),
		Content: []byte(content),
	}, nil
}

// neftFile emits the NEFT upload layout: text fields double-quoted,
// amounts with exactly two decimal places.
func (s *service) neftFile(records []payroll.Record) string {
	var b strings.Builder
	b.WriteString("Beneficiary Name,Account Number,IFSC Code,Amount,Narration\n")
	for _, record := range records {
		account := crypto.SafeText(s.codec, record.BankAccountNumber)
		ifsc := crypto.SafeText(s.codec, record.RoutingCode)
		net := crypto.SafeAmount(s.codec, record.NetSalary)
		narration := fmt.Sprintf("Salary %s %d", time.Month(record.PeriodMonth), record.PeriodYear)

		b.WriteString(quoted(recordName(record)) + "," + quoted(account) + "," + quoted(ifsc) + "," +
			amount(net) + "," + quoted(narration) + "\n")
	}
	return b.String()
}

// achFile emits the ACH credit layout with the fixed transaction code.
func (s *service) achFile(comp company.Company, records []payroll.Record) string {
	var b strings.Builder
	b.WriteString("Employee Name,Routing Number,Account Number,Amount,Transaction Code,Company Name\n")
	for _, record := range records {
		account := crypto.SafeText(s.codec, record.BankAccountNumber)
		routing := crypto.SafeText(s.codec, record.RoutingCode)
		net := crypto.SafeAmount(s.codec, record.NetSalary)

		b.WriteString(quoted(recordName(record)) + "," + routing + "," + account + "," +
			amount(net) + "," + achCreditCode + "," + quoted(comp.Name) + "\n")
	}
	return b.String()
}
