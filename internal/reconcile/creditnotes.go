package reconcile

import (
	"time"

	"github.com/a3tai/process-extractor/internal/model"
	"github.com/a3tai/process-extractor/internal/sections"
)

// ComplementCreditNotes fills budget codes the notes lack from the
// requisition's identification block, resolves deadlines that are still
// open and falls back to the total value as balance.
func ComplementCreditNotes(notes []model.CreditNote, id model.Identification, today time.Time) {
	for i := range notes {
		nc := &notes[i]
		model.Fill(&nc.ND, id.ND)
		model.Fill(&nc.PTRES, id.PTRES)
		model.Fill(&nc.Source, id.Source)
		model.Fill(&nc.UGR, id.UGR)
		model.Fill(&nc.PI, id.PI)

		if nc.DaysRemaining == nil && !model.Empty(nc.Deadline) {
			sections.ResolveDeadline(nc, today)
		}
		if nc.Balance == nil && nc.TotalValue != nil {
			nc.Balance = model.Float(*nc.TotalValue)
		}
	}
}

// ApplyCreditNoteMirror copies the fields read from an image-only note
// into every note that lacks them. It returns the number of fields filled.
func ApplyCreditNoteMirror(notes []model.CreditNote, m *model.CreditNoteMirror, today time.Time) int {
	if m == nil {
		return 0
	}
	filled := 0
	fill := func(dst **string, src *string) {
		if model.Empty(*dst) && !model.Empty(src) {
			model.Fill(dst, src)
			filled++
		}
	}
	for i := range notes {
		nc := &notes[i]
		fill(&nc.Source, m.Source)
		fill(&nc.ND, m.ND)
		fill(&nc.UGR, m.UGR)
		fill(&nc.PI, m.PI)
		fill(&nc.Sphere, m.Sphere)
		fill(&nc.PTRES, m.PTRES)
		if model.Empty(nc.Deadline) && !model.Empty(m.Deadline) {
			fill(&nc.Deadline, m.Deadline)
			sections.ResolveDeadline(nc, today)
		}
	}
	return filled
}
