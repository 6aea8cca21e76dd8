package sections

import (
	"regexp"
	"strings"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

const auctionRef = `Preg[ãa]o\s+(?:Eletr[ôo]nico\s+)?(?:n[ºo°]\s*)?\d{3,5}/\d{4}`

var (
	// "Pregão Eletrônico nº 90004/2025 gerenciado pela UASG 160142 – 9º B Sup"
	auctionManagedBy = regexp.MustCompile(`(?i)` + auctionRef +
		`\s+gerenciad[ao]\s+pel[ao]\s+UASG\s+(\d{6})\s*[–\-]\s*(.+?)(?:[,.]|\s+o qual|\s+da qual|\n)`)
	// "Pregão nº 90006/2024, da UASG 160141, CRO/9"
	auctionOfUASG = regexp.MustCompile(`(?i)` + auctionRef +
		`,?\s+d[ao]\s+UASG\s+(\d{6})[,\s]+([^,\n]+?)(?:,\s+da qual|\s+da qual|\n|$)`)
	// "PE 90004/2025, UASG 160142 (GER)"
	auctionShort = regexp.MustCompile(`(?i)PE\s+\d{3,5}/\d{4},?\s+UASG\s+(\d{6})`)

	whichClause     = regexp.MustCompile(`\s+d[ao]\s+qual.*`)
	auctionObject   = regexp.MustCompile(`(?is)despesas\s+com\s+(?:a\s+)?([Aa]quisi[çc][ãa]o\s+de\s+.+?)(?:\s+para\s+atender|\s+constante|\s+por\s+meio|\s*[,.])`)
	approvalObject  = regexp.MustCompile(`(?is)aprovar\s+as\s+despesas\s+com\s+(.+?)(?:\s+constante|\s+por\s+meio|\s*[,.])`)
)

// ParseAuctionDetails reads the managing UASG, its name and the auction
// object. It returns nil when none is present.
func ParseAuctionDetails(text string) *model.AuctionDetails {
	var d model.AuctionDetails

	if m := auctionManagedBy.FindStringSubmatch(text); m != nil {
		d.ManagingUASG = model.Str(m[1])
		d.ManagingName = model.Str(m[2])
	}
	if d.ManagingUASG == nil {
		if m := auctionOfUASG.FindStringSubmatch(text); m != nil {
			d.ManagingUASG = model.Str(m[1])
			name := strings.TrimSpace(whichClause.ReplaceAllString(strings.TrimSpace(m[2]), ""))
			if len([]rune(name)) > 2 {
				d.ManagingName = &name
			}
		}
	}
	if d.ManagingUASG == nil {
		d.ManagingUASG = find(auctionShort, text)
	}

	d.Object = findSquashed(auctionObject, text)
	if d.Object == nil {
		d.Object = findSquashed(approvalObject, text)
	}

	if d.ManagingUASG == nil && d.ManagingName == nil && d.Object == nil {
		return nil
	}
	return &d
}

// NormalizeAuctionNumber brings an auction number into its five-digit form.
func NormalizeAuctionNumber(raw string) string {
	return brtext.NormalizeAuctionNumber(raw)
}
