// Package reconcile merges the facts of individual sections into one
// consistent view of the process and cross-checks the contract against
// the rest of the file.
package reconcile

import (
	"fmt"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/classify"
	"github.com/a3tai/process-extractor/internal/model"
)

// Process types.
const (
	TypeContract = "Contrato"
	TypeAuction  = "Licitação"
)

// MergeIdentification completes id with the requisition. Identity fields
// are only filled when the cover left them empty; the instrument and the
// financial block always follow the requisition.
func MergeIdentification(id *model.Identification, req model.Requisition) {
	model.Fill(&id.NUP, req.NUP)
	model.Fill(&id.Unit, req.Unit)
	model.Fill(&id.Sector, req.Sector)
	model.Fill(&id.EmpenhoType, req.EmpenhoType)
	model.Fill(&id.Supplier, req.Supplier)
	model.Fill(&id.CNPJ, req.CNPJ)
	model.Fill(&id.Object, req.Subject)

	switch {
	case !model.Empty(req.ContractNumber):
		id.Instrument = model.Str("Contrato " + *req.ContractNumber)
		id.Type = model.Str(TypeContract)
	case !model.Empty(req.AuctionNumber):
		instrument := "PE " + *req.AuctionNumber
		if !model.Empty(req.ParticipationType) {
			instrument += fmt.Sprintf(" (%s)", *req.ParticipationType)
		}
		id.Instrument = model.Str(instrument)
		id.Type = model.Str(TypeAuction)
	}

	override(&id.RequisitionNumber, req.Number)
	override(&id.UASG, req.UASG)
	override(&id.CreditNote, req.CreditNote)
	override(&id.CreditNoteDate, req.CreditNoteDate)
	override(&id.CreditNoteIssuer, req.CreditNoteIssuer)
	override(&id.ND, req.ND)
	override(&id.PI, req.PI)
	override(&id.PTRES, req.PTRES)
	override(&id.UGR, req.UGR)
	override(&id.Source, req.Source)
	override(&id.AuctionNumber, req.AuctionNumber)
	override(&id.ContractNumber, req.ContractNumber)
	override(&id.ParticipationType, req.ParticipationType)
	override(&id.ManagingUG, req.ManagingUG)
	override(&id.ContractFiscal, req.ContractFiscal)
	override(&id.RequesterMask, req.RequesterMask)
	if len(req.AdditionalCreditNotes) > 0 {
		id.AdditionalCreditNotes = append([]string(nil), req.AdditionalCreditNotes...)
	}
	if req.Auction != nil {
		a := *req.Auction
		id.Auction = &a
	}
}

func override(dst **string, src *string) {
	if !model.Empty(src) {
		v := *src
		*dst = &v
	}
}

// SupplierStage names a step of the supplier cascade.
type SupplierStage string

const (
	StageRequisitionText  SupplierStage = "requisition_text"
	StageRequisitionImage SupplierStage = "requisition_image"
	StageSICAF            SupplierStage = "sicaf"
)

// FillSupplier applies one stage of the supplier cascade. Only fields that
// are still empty are written. It reports whether anything changed.
func FillSupplier(id *model.Identification, supplier, cnpj *string) bool {
	changed := false
	if model.Empty(id.Supplier) && !model.Empty(supplier) {
		model.Fill(&id.Supplier, supplier)
		changed = true
	}
	if model.Empty(id.CNPJ) && !model.Empty(cnpj) {
		model.Fill(&id.CNPJ, cnpj)
		changed = true
	}
	return changed
}

// SupplierComplete reports whether both supplier name and CNPJ are known.
func SupplierComplete(id model.Identification) bool {
	return !model.Empty(id.Supplier) && !model.Empty(id.CNPJ)
}

// FillSupplierFromSICAF is the last cascade stage.
func FillSupplierFromSICAF(id *model.Identification, s *model.SICAF) bool {
	if s == nil {
		return false
	}
	return FillSupplier(id, s.LegalName, s.CNPJ)
}

// InferProcessType decides between contract and auction when the
// requisition did not name an instrument. A contract number or contract
// paperwork wins; an auction number comes next, even when the empenho type
// is Global or Estimativo. The empenho type alone is the last resort.
// Nil means undetermined.
func InferProcessType(id model.Identification, cls classify.Classification) *string {
	if !model.Empty(id.ContractNumber) || cls.Has(model.CategoryChecklist) || cls.Has(model.CategoryContract) {
		return model.Str(TypeContract)
	}
	if !model.Empty(id.AuctionNumber) {
		return model.Str(TypeAuction)
	}
	switch brtext.Fold(model.Val(id.EmpenhoType)) {
	case "GLOBAL", "ESTIMATIVO":
		return model.Str(TypeContract)
	case "ORDINARIO":
		return model.Str(TypeAuction)
	}
	return nil
}
