package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/process-extractor/internal/model"
)

const sicafText = `SICAF - Sistema de Cadastramento Unificado de Fornecedores
Dados do Fornecedor
CNPJ: 12.345.678/0001-90
Razão Social: ALFA COMERCIO LTDA
Nome Fantasia: ALFA
Situação do Fornecedor: Credenciado
Vencimento do Cadastro: 10/10/2025
Porte da Empresa: Micro Empresa
Ocorrência: Nada Consta
Impedimento de Licitar: Nada Consta
Ocorrências Impeditivas indiretas: Nada Consta
Vínculo com "Serviço Público": Nada Consta
Receita Federal e PGFN Validade: 01/08/2025
FGTS Validade: 15/06/2025
Trabalhista Validade: 20/09/2025
Receita Estadual/Distrital Validade: 30/07/2025
Receita Municipal Validade: 31/05/2025
Qualificação Econômico-Financeira
Validade: 30/04/2026
Emitido em: 18/03/2025
`

func TestParseSICAF(t *testing.T) {
	s := ParseSICAF(sicafText)

	assert.Equal(t, "12.345.678/0001-90", model.Val(s.CNPJ))
	assert.Equal(t, "ALFA COMERCIO LTDA", model.Val(s.LegalName))
	assert.Equal(t, "ALFA", model.Val(s.TradeName))
	assert.Equal(t, "Credenciado", model.Val(s.Status))
	assert.Equal(t, "10/10/2025", model.Val(s.RegistryExpiry))
	assert.Equal(t, "Micro Empresa", model.Val(s.CompanySize))
	assert.Equal(t, "Nada Consta", model.Val(s.Occurrence))
	assert.Equal(t, "Nada Consta", model.Val(s.LicitationImpediment))
	assert.Equal(t, "Nada Consta", model.Val(s.IndirectImpediment))
	assert.Equal(t, "Nada Consta", model.Val(s.PublicServiceLink))
	assert.Equal(t, "18/03/2025", model.Val(s.EmissionDate))
	assert.Equal(t, map[string]string{
		ValidityFederal:   "01/08/2025",
		ValidityFGTS:      "15/06/2025",
		ValidityLabor:     "20/09/2025",
		ValidityState:     "30/07/2025",
		ValidityMunicipal: "31/05/2025",
		ValidityEconomic:  "30/04/2026",
	}, s.Validities)
}

func TestParseSICAFBlankTradeName(t *testing.T) {
	s := ParseSICAF("Nome Fantasia: \nSituação do Fornecedor: Credenciado\n")
	assert.Nil(t, s.TradeName)
	assert.Equal(t, "Credenciado", model.Val(s.Status))
	assert.Empty(t, s.Validities)
}

func TestParseCADIN(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantStatus string
	}{
		{
			name:       "federal sphere",
			text:       "CADIN\nCNPJ: 12.345.678/0001-90\nSituação para a Esfera Federal: Regular\nEmissão em 18/03/2025",
			wantStatus: "REGULAR",
		},
		{
			name:       "any status line",
			text:       "CADIN\nSituação do contratante: nada consta\n",
			wantStatus: "NADA CONSTA",
		},
		{
			name: "no status",
			text: "CADIN\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ParseCADIN(tt.text)
			assert.Equal(t, tt.wantStatus, model.Val(c.Status))
		})
	}

	c := ParseCADIN(tests[0].text)
	assert.Equal(t, "12.345.678/0001-90", model.Val(c.CNPJ))
	assert.Equal(t, "18/03/2025", model.Val(c.EmissionDate))
}

const consolidatedText = `Consulta Consolidada de Pessoa Jurídica
CNPJ: 12.345.678/0001-90
Razão Social: ALFA COMERCIO LTDA
Consulta realizada em: 18/03/2025
Órgão Gestor: TCU
Cadastro: Licitantes Inidôneos
Resultado da consulta: Nada Consta
Órgão Gestor: CNJ
Cadastro: CNIA - Cadastro Nacional de Condenações Cíveis por Ato de
Improbidade Administrativa e Inelegibilidade
Resultado da consulta: Nada Consta
Órgão Gestor: CGU
Cadastro: Cadastro Nacional de Empresas Punidas
Resultado da consulta: Nada Consta
`

func TestParseConsolidated(t *testing.T) {
	c := ParseConsolidated(consolidatedText)

	assert.Equal(t, "12.345.678/0001-90", model.Val(c.CNPJ))
	assert.Equal(t, "ALFA COMERCIO LTDA", model.Val(c.LegalName))
	assert.Equal(t, "18/03/2025", model.Val(c.ConsultationDate))

	require.Len(t, c.Registries, 3)
	assert.Equal(t, model.RegistryCheck{
		Body:      "TCU",
		Registry:  "Licitantes Inidôneos",
		ShortName: "TCU - Licitantes Inidôneos",
		Result:    "Nada Consta",
	}, c.Registries[0])
	assert.Equal(t, "CNIA - Cadastro Nacional de Condenações Cíveis por Ato de Improbidade Administrativa e Inelegibilidade",
		c.Registries[1].Registry, "wrapped registry name is joined")
	assert.Equal(t, "CNJ - Improbidade", c.Registries[1].ShortName)
	assert.Equal(t, "CNEP - Empresas Punidas", c.Registries[2].ShortName)
}

func TestParseConsolidatedIncompleteBlock(t *testing.T) {
	text := "Órgão Gestor: TCU\nCadastro: Licitantes Inidôneos\nÓrgão Gestor: CGU\nCadastro: CEPIM\nResultado da consulta: Nada Consta\n"
	c := ParseConsolidated(text)
	require.Len(t, c.Registries, 1)
	assert.Equal(t, "CGU", c.Registries[0].Body)
	assert.Equal(t, "CEPIM - Impedidas", c.Registries[0].ShortName)
}

func TestShortRegistryName(t *testing.T) {
	tests := []struct {
		registry, body, want string
	}{
		{"Licitantes Inidôneos", "TCU", "TCU - Licitantes Inidôneos"},
		{"Cadastro de Inidôneos e Suspensos", "CGU", "CEIS - Inidôneas/Suspensas"},
		{"Improbidade Administrativa", "CNJ", "CNJ - Improbidade"},
		{"Empresas Punidas", "CGU", "CNEP - Empresas Punidas"},
		{"CEPIM", "CGU", "CEPIM - Impedidas"},
		{"Lista eTCE", "TCU", "CADICON / eTCE"},
		{"Outro cadastro", "X", "Outro cadastro"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShortRegistryName(tt.registry, tt.body), tt.registry)
	}
}
