package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

// Check field labels.
const (
	FieldContractNumber = "Nº Contrato"
	FieldContractedCNPJ = "CNPJ Contratada"
	FieldCNPJvsSICAF    = "CNPJ (Contrato vs SICAF)"
	FieldSignatures     = "Assinaturas"
	FieldValidity       = "Vigência"
)

// validityWarningDays is how close to its end a contract turns yellow.
const validityWarningDays = 30

// ValidateContract cross-checks the contract against the requisition and
// the SICAF certificate. Findings are raw facts; judging them is left to
// the caller. now is converted to the institution's time zone.
func ValidateContract(id model.Identification, c *model.Contract, sicaf *model.SICAF, now time.Time) []model.ContractCheck {
	if c == nil {
		return nil
	}
	var checks []model.ContractCheck
	add := func(field string, status model.CheckStatus, format string, args ...any) {
		checks = append(checks, model.ContractCheck{Field: field, Status: status, Message: fmt.Sprintf(format, args...)})
	}

	reqNr, docNr := model.Val(id.ContractNumber), model.Val(c.Number)
	switch {
	case reqNr != "" && docNr != "":
		if stripZeros(reqNr) == stripZeros(docNr) {
			add(FieldContractNumber, model.CheckGreen, "Número confere: %s", docNr)
		} else {
			add(FieldContractNumber, model.CheckRed, "Divergência: requisição=%s, documento=%s", reqNr, docNr)
		}
	case reqNr != "":
		add(FieldContractNumber, model.CheckYellow, "Número %s na requisição, mas não encontrado no documento", reqNr)
	}

	contracted, supplier := model.Val(c.ContractedCNPJ), model.Val(id.CNPJ)
	if contracted != "" && supplier != "" {
		if contracted == supplier {
			add(FieldContractedCNPJ, model.CheckGreen, "CNPJ confere: %s", contracted)
		} else {
			add(FieldContractedCNPJ, model.CheckRed, "Divergência: contrato=%s, requisição=%s", contracted, supplier)
		}
	}
	if sicaf != nil && contracted != "" && !model.Empty(sicaf.CNPJ) && contracted != *sicaf.CNPJ {
		add(FieldCNPJvsSICAF, model.CheckRed, "Contrato=%s, SICAF=%s", contracted, *sicaf.CNPJ)
	}

	if c.Signed {
		names := c.Signatories
		if len(names) > 3 {
			names = names[:3]
		}
		add(FieldSignatures, model.CheckGreen, "Contrato assinado digitalmente (%d assinantes: %s)",
			len(c.Signatories), strings.Join(names, ", "))
	} else {
		add(FieldSignatures, model.CheckYellow, "Assinaturas digitais não detectadas no documento")
	}

	if end := model.Val(c.ValidityEnd); end != "" {
		checks = append(checks, validityCheck(end, now))
	}
	return checks
}

func validityCheck(end string, now time.Time) model.ContractCheck {
	check := model.ContractCheck{Field: FieldValidity}
	due, err := time.ParseInLocation("02/01/2006", end, brtext.Location)
	if err != nil {
		check.Status = model.CheckYellow
		check.Message = fmt.Sprintf("Data de vigência não pôde ser interpretada: %s", end)
		return check
	}
	now = now.In(brtext.Location)
	if due.Before(now) {
		check.Status = model.CheckRed
		check.Message = fmt.Sprintf("Contrato vencido desde %s (%d dias)", end, wholeDays(now.Sub(due)))
		return check
	}
	left := wholeDays(due.Sub(now))
	check.Status = model.CheckYellow
	if left > validityWarningDays {
		check.Status = model.CheckGreen
	}
	check.Message = fmt.Sprintf("Vigente até %s (%d dias restantes)", end, left)
	return check
}

func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

func stripZeros(nr string) string {
	if s := strings.TrimLeft(nr, "0"); s != "" {
		return s
	}
	return "0"
}
