// Package model defines the result structure produced by the extractor.
// Optional facts are pointers: nil means "not found" and is distinct from
// an empty value.
package model

import (
	"strings"
	"time"
)

// TextSource records how a page's text was obtained.
type TextSource string

const (
	SourceNative TextSource = "native"
	SourceOCR    TextSource = "ocr"
)

// Page is one page of acquired text. Number is 1-based.
type Page struct {
	Number  int        `json:"number"`
	Text    string     `json:"text"`
	Source  TextSource `json:"source"`
	HasText bool       `json:"has_text"`
}

// Category is a page class assigned by the classifier.
type Category string

const (
	CategoryCover        Category = "cover"
	CategoryOpeningTerm  Category = "opening_term"
	CategoryChecklist    Category = "checklist"
	CategoryRequisition  Category = "requisition"
	CategoryCreditNote   Category = "credit_note"
	CategorySICAF        Category = "sicaf"
	CategoryCADIN        Category = "cadin"
	CategoryConsolidated Category = "consolidated_check"
	CategoryDispatch     Category = "dispatch"
	CategoryContract     Category = "contract"
	CategoryEdital       Category = "edital"
	CategoryUnclassified Category = "unclassified"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryCover, CategoryOpeningTerm, CategoryChecklist, CategoryRequisition,
	CategoryCreditNote, CategorySICAF, CategoryCADIN, CategoryConsolidated,
	CategoryDispatch, CategoryContract, CategoryEdital, CategoryUnclassified,
}

// PieceStatus is the status of a procedural piece listed on the cover.
type PieceStatus string

const (
	PieceActive         PieceStatus = "active"
	PieceOriginDocument PieceStatus = "origin_document"
	PieceNotPrintable   PieceStatus = "not_printable"
	PieceRemoved        PieceStatus = "removed"
	PieceSplit          PieceStatus = "split"
)

// ProceduralPiece is one numbered entry of the cover's piece list.
type ProceduralPiece struct {
	Number int         `json:"number"`
	Name   string      `json:"name"`
	Marker *string     `json:"marker"`
	Status PieceStatus `json:"status"`
}

// Cover holds the facts read from the process cover page.
type Cover struct {
	NUP            *string           `json:"nup"`
	Subject        *string           `json:"subject"`
	Interested     *string           `json:"interested"`
	OriginBody     *string           `json:"origin_body"`
	Classification *string           `json:"classification"`
	Section        *string           `json:"section"`
	Pieces         []ProceduralPiece `json:"pieces,omitempty"`
}

// AuctionDetails describes the managing side of an auction.
type AuctionDetails struct {
	ManagingUASG *string `json:"managing_uasg"`
	ManagingName *string `json:"managing_name"`
	Object       *string `json:"object"`
}

// Requisition holds the facts read from the requisition pages.
type Requisition struct {
	Number                *string         `json:"number"`
	Sector                *string         `json:"sector"`
	Unit                  *string         `json:"unit"`
	NUP                   *string         `json:"nup"`
	Date                  *string         `json:"date"`
	Addressee             *string         `json:"addressee"`
	Subject               *string         `json:"subject"`
	LegalReference        *string         `json:"legal_reference"`
	EmpenhoType           *string         `json:"empenho_type"`
	Supplier              *string         `json:"supplier"`
	CNPJ                  *string         `json:"cnpj"`
	CreditNote            *string         `json:"credit_note"`
	AdditionalCreditNotes []string        `json:"additional_credit_notes,omitempty"`
	CreditNoteDate        *string         `json:"credit_note_date"`
	CreditNoteIssuer      *string         `json:"credit_note_issuer"`
	ND                    *string         `json:"nd"`
	PI                    *string         `json:"pi"`
	PTRES                 *string         `json:"ptres"`
	UGR                   *string         `json:"ugr"`
	Source                *string         `json:"source"`
	AuctionNumber         *string         `json:"auction_number"`
	Auction               *AuctionDetails `json:"auction,omitempty"`
	UASG                  *string         `json:"uasg"`
	ParticipationType     *string         `json:"participation_type"`
	ContractNumber        *string         `json:"contract_number"`
	ManagingUG            *string         `json:"managing_ug"`
	ContractFiscal        *string         `json:"contract_fiscal"`
	RequesterMask         *string         `json:"requester_mask"`
}

// Identification is the merged identity of the process.
type Identification struct {
	Cover
	Type                  *string         `json:"type"`
	Unit                  *string         `json:"unit"`
	Sector                *string         `json:"sector"`
	Object                *string         `json:"object"`
	Supplier              *string         `json:"supplier"`
	CNPJ                  *string         `json:"cnpj"`
	EmpenhoType           *string         `json:"empenho_type"`
	Instrument            *string         `json:"instrument"`
	RequisitionNumber     *string         `json:"requisition_number"`
	CreditNote            *string         `json:"credit_note"`
	AdditionalCreditNotes []string        `json:"additional_credit_notes,omitempty"`
	CreditNoteDate        *string         `json:"credit_note_date"`
	CreditNoteIssuer      *string         `json:"credit_note_issuer"`
	ND                    *string         `json:"nd"`
	PI                    *string         `json:"pi"`
	PTRES                 *string         `json:"ptres"`
	UGR                   *string         `json:"ugr"`
	Source                *string         `json:"source"`
	AuctionNumber         *string         `json:"auction_number"`
	Auction               *AuctionDetails `json:"auction,omitempty"`
	UASG                  *string         `json:"uasg"`
	ParticipationType     *string         `json:"participation_type"`
	ContractNumber        *string         `json:"contract_number"`
	ManagingUG            *string         `json:"managing_ug"`
	ContractFiscal        *string         `json:"contract_fiscal"`
	RequesterMask         *string         `json:"requester_mask"`
}

// Item is one line of the requested-items table.
type Item struct {
	Number      int        `json:"item"`
	Code        *string    `json:"catserv"`
	Description *string    `json:"description"`
	Unit        *string    `json:"unit"`
	Quantity    *float64   `json:"quantity"`
	NatureSub   *string    `json:"nd_si"`
	UnitPrice   *float64   `json:"unit_price"`
	TotalPrice  *float64   `json:"total_price"`
	Source      TextSource `json:"source,omitempty"`
}

// CreditNoteFormat tells which layout a credit note was parsed from.
type CreditNoteFormat string

const (
	FormatTerminal   CreditNoteFormat = "terminal"
	FormatGeneric    CreditNoteFormat = "generic"
	FormatNumberOnly CreditNoteFormat = "number_only"
)

// LedgerPosting is one posting of a terminal-screen credit note.
type LedgerPosting struct {
	Event  string   `json:"event"`
	Sphere string   `json:"sphere"`
	PTRES  string   `json:"ptres"`
	Source string   `json:"source"`
	ND     string   `json:"nd"`
	UGR    string   `json:"ugr"`
	PI     string   `json:"pi"`
	Value  *float64 `json:"value"`
}

// CreditNote is a budget allocation document.
type CreditNote struct {
	Number        *string            `json:"number"`
	Format        CreditNoteFormat   `json:"format"`
	SIAFIRef      *string            `json:"siafi_ref,omitempty"`
	EmissionDate  *string            `json:"emission_date"`
	IssuerUG      *string            `json:"issuer_ug"`
	IssuerName    *string            `json:"issuer_name,omitempty"`
	RecipientUG   *string            `json:"recipient_ug"`
	RecipientName *string            `json:"recipient_name,omitempty"`
	Sphere        *string            `json:"sphere"`
	PTRES         *string            `json:"ptres"`
	Source        *string            `json:"source"`
	ND            *string            `json:"nd"`
	UGR           *string            `json:"ugr"`
	PI            *string            `json:"pi"`
	TotalValue    *float64           `json:"total_value"`
	Balance       *float64           `json:"balance"`
	Deadline      *string            `json:"deadline"`
	DaysRemaining *int               `json:"days_remaining"`
	Description   *string            `json:"description,omitempty"`
	Observation   *string            `json:"observation,omitempty"`
	Postings      []LedgerPosting    `json:"postings,omitempty"`
	BalanceByND   map[string]float64 `json:"balance_by_nd,omitempty"`
}

// CreditNoteMirror holds the budget fields read from an image-only
// credit-note page.
type CreditNoteMirror struct {
	Source   *string `json:"source"`
	ND       *string `json:"nd"`
	UGR      *string `json:"ugr"`
	PI       *string `json:"pi"`
	Deadline *string `json:"deadline"`
	Sphere   *string `json:"sphere"`
	PTRES    *string `json:"ptres"`
}

// SICAF is the supplier registration certificate.
type SICAF struct {
	CNPJ                 *string           `json:"cnpj"`
	LegalName            *string           `json:"legal_name"`
	TradeName            *string           `json:"trade_name"`
	Status               *string           `json:"status"`
	RegistryExpiry       *string           `json:"registry_expiry"`
	CompanySize          *string           `json:"company_size"`
	Occurrence           *string           `json:"occurrence"`
	LicitationImpediment *string           `json:"licitation_impediment"`
	IndirectImpediment   *string           `json:"indirect_impediment"`
	PublicServiceLink    *string           `json:"public_service_link"`
	Validities           map[string]string `json:"validities,omitempty"`
	EmissionDate         *string           `json:"emission_date"`
}

// CADIN is the federal debtor registry check.
type CADIN struct {
	CNPJ         *string `json:"cnpj"`
	Status       *string `json:"status"`
	EmissionDate *string `json:"emission_date"`
}

// RegistryCheck is one registry consulted by the consolidated check.
type RegistryCheck struct {
	Body      string `json:"body"`
	Registry  string `json:"registry"`
	ShortName string `json:"short_name"`
	Result    string `json:"result"`
}

// ConsolidatedCheck is the consolidated legal-entity consultation.
type ConsolidatedCheck struct {
	CNPJ             *string         `json:"cnpj"`
	LegalName        *string         `json:"legal_name"`
	ConsultationDate *string         `json:"consultation_date"`
	Registries       []RegistryCheck `json:"registries,omitempty"`
}

// Certificates groups the supplier certificates.
type Certificates struct {
	SICAF        *SICAF             `json:"sicaf"`
	CADIN        *CADIN             `json:"cadin"`
	Consolidated *ConsolidatedCheck `json:"consolidated"`
}

// Contract holds the facts read from a contract.
type Contract struct {
	Number          *string  `json:"number"`
	ContractingUASG *string  `json:"contracting_uasg"`
	ContractingName *string  `json:"contracting_name"`
	ContractingCNPJ *string  `json:"contracting_cnpj"`
	ContractedName  *string  `json:"contracted_name"`
	ContractedCNPJ  *string  `json:"contracted_cnpj"`
	Object          *string  `json:"object"`
	TotalValue      *string  `json:"total_value"`
	TotalAmount     *float64 `json:"total_amount"`
	ValidityStart   *string  `json:"validity_start"`
	ValidityEnd     *string  `json:"validity_end"`
	OriginAuction   *string  `json:"origin_auction"`
	Signed          bool     `json:"signed"`
	Signatories     []string `json:"signatories,omitempty"`
}

// CheckStatus is the traffic-light outcome of a contract check.
type CheckStatus string

const (
	CheckGreen  CheckStatus = "green"
	CheckYellow CheckStatus = "yellow"
	CheckRed    CheckStatus = "red"
)

// ContractCheck is one cross-validation of the contract.
type ContractCheck struct {
	Field   string      `json:"field"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
}

// DispatchType classifies an administrative dispatch.
type DispatchType string

const (
	DispatchApprovalForwarding DispatchType = "approval_forwarding"
	DispatchApproval           DispatchType = "approval"
	DispatchForwarding         DispatchType = "forwarding"
	DispatchRestitution        DispatchType = "restitution"
	DispatchInformation        DispatchType = "information"
	DispatchRejection          DispatchType = "rejection"
	DispatchOther              DispatchType = "other"
)

// Dispatch is an administrative despacho.
type Dispatch struct {
	FullNumber      *string      `json:"full_number"`
	Number          *int         `json:"number"`
	Sector          *string      `json:"sector"`
	Unit            *string      `json:"unit"`
	Date            *string      `json:"date"`
	Subject         *string      `json:"subject"`
	Type            DispatchType `json:"type"`
	Text            string       `json:"text"`
	Signatory       *string      `json:"signatory"`
	Office          *string      `json:"office"`
	DigitallySigned bool         `json:"digitally_signed"`
	Page            int          `json:"page"`
}

// Metadata summarizes how the document was processed.
type Metadata struct {
	AnalysisID    string             `json:"analysis_id"`
	SourceFile    string             `json:"source_file"`
	TotalPages    int                `json:"total_pages"`
	PagesWithText int                `json:"pages_with_text"`
	PagesOCR      int                `json:"pages_ocr"`
	OCRAvailable  bool               `json:"ocr_available"`
	Categories    map[Category][]int `json:"categories"`
	Diagnostics   []string           `json:"diagnostics,omitempty"`
	Error         *string            `json:"error,omitempty"`
	ProcessedAt   time.Time          `json:"processed_at"`
	DurationMS    int64              `json:"duration_ms"`
}

// Result is the full extraction output for one PDF.
type Result struct {
	Identification Identification  `json:"identification"`
	Items          []Item          `json:"items"`
	CreditNotes    []CreditNote    `json:"credit_notes"`
	Certificates   Certificates    `json:"certificates"`
	Contract       *Contract       `json:"contract"`
	ContractChecks []ContractCheck `json:"contract_checks,omitempty"`
	Dispatches     []Dispatch      `json:"dispatches"`
	Metadata       Metadata        `json:"metadata"`
}

// NewResult returns a Result with every collection initialized.
func NewResult() *Result {
	return &Result{
		Items:       []Item{},
		CreditNotes: []CreditNote{},
		Dispatches:  []Dispatch{},
		Metadata: Metadata{
			Categories: map[Category][]int{},
		},
	}
}

// Str returns a pointer to the trimmed s, or nil when s is blank.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Val dereferences p, returning "" for nil.
func Val(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Empty reports whether p is nil or blank.
func Empty(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}

// Fill sets *dst to src when dst is empty and src is not.
func Fill(dst **string, src *string) {
	if Empty(*dst) && !Empty(src) {
		v := *src
		*dst = &v
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
