package sections

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

var (
	coverSubject        = regexp.MustCompile(`(?i)ASSUNTO:\s*(.+)`)
	coverInterested     = regexp.MustCompile(`(?i)INTERESSADO:\s*(.+)`)
	coverOrigin         = regexp.MustCompile(`(?im)[ÓO]rg[ãa]o\s+de\s+Origem:\s*(.+?)(?:\s+Data\s+da\s+Cria|$)`)
	coverClassification = regexp.MustCompile(`(?i)Classifica[çc][ãa]o:\s*(\d{3}\.\d+)`)
	coverSection        = regexp.MustCompile(`(?i)SE[ÇC][ÃA]O:\s*(.+)`)

	piecesStart = regexp.MustCompile(`(?i)PE[ÇC]AS\s+PROCESSUAIS`)
	piecesEnd   = regexp.MustCompile(`(?i)Legenda`)
	pieceLine   = regexp.MustCompile(`(?m)^(\d{1,3})\s*[-–]\s*(.+?)(?:\s*\(([a-d])\))?\s*$`)
)

var pieceStatus = map[string]model.PieceStatus{
	"a": model.PieceOriginDocument,
	"b": model.PieceNotPrintable,
	"c": model.PieceRemoved,
	"d": model.PieceSplit,
}

// ParseCover reads the process cover.
func ParseCover(text string) model.Cover {
	c := model.Cover{
		Subject:        find(coverSubject, text),
		Interested:     find(coverInterested, text),
		OriginBody:     find(coverOrigin, text),
		Classification: find(coverClassification, text),
		Section:        find(coverSection, text),
		Pieces:         ParsePieces(text),
	}
	if m := nupPattern.FindString(text); m != "" {
		c.NUP = &m
	}
	return c
}

// ParsePieces reads the numbered piece list between the "Peças
// processuais" heading and the legend.
func ParsePieces(text string) []model.ProceduralPiece {
	loc := piecesStart.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	section := text[loc[1]:]
	if end := piecesEnd.FindStringIndex(section); end != nil {
		section = section[:end[0]]
	}

	var pieces []model.ProceduralPiece
	for _, m := range pieceLine.FindAllStringSubmatch(section, -1) {
		name := strings.TrimSpace(m[2])
		if len([]rune(name)) < 3 || isNumericLabel(name) {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		p := model.ProceduralPiece{Number: n, Name: name, Status: model.PieceActive}
		if m[3] != "" {
			marker := m[3]
			p.Marker = &marker
			p.Status = pieceStatus[marker]
		}
		pieces = append(pieces, p)
	}
	return pieces
}

func isNumericLabel(s string) bool {
	return brtext.IsDigits(strings.NewReplacer(".", "", "/", "").Replace(s))
}
