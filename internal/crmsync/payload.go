// Package crmsync turns an inbound proposal webhook into a GoHighLevel
// contact upsert plus a linked sales opportunity.
package crmsync

import "fmt"

// ProposalPayload is the webhook body posted by the proposal front-end.
// Pointer fields distinguish absent values, which are omitted from the CRM
// payload rather than sent as null.
type ProposalPayload struct {
	Cliente           ClienteSection      `json:"cliente"`
	Consumo           ConsumoSection      `json:"consumo"`
	Equipamentos      EquipamentosSection `json:"equipamentos"`
	Negocio           NegocioSection      `json:"negocio"`
	ValorProposta     *float64            `json:"valor_proposta,omitempty"`
	ObservacoesGerais string              `json:"observacoes_gerais,omitempty"`
}

// ClienteSection carries the customer's identity and address.
type ClienteSection struct {
	Nome     string `json:"nome,omitempty"`
	Email    string `json:"email,omitempty"`
	Telefone string `json:"telefone,omitempty"`
	Endereco string `json:"endereco,omitempty"`
	Cidade   string `json:"cidade,omitempty"`
	Origem   string `json:"origem,omitempty"`
	CPF      string `json:"cpf,omitempty"`
}

// ConsumoSection carries the consumption figures.
type ConsumoSection struct {
	ConsumoMedioMensal *float64 `json:"consumo_medio_mensal,omitempty"`
}

// EquipamentosSection carries the sized equipment.
type EquipamentosSection struct {
	PotenciaModulosW  *float64 `json:"potencia_modulos_w,omitempty"`
	PotenciaSistemaKw *float64 `json:"potencia_sistema_kw,omitempty"`
	QuantidadeModulos *float64 `json:"quantidade_modulos,omitempty"`
}

// NegocioSection carries the deal metadata.
type NegocioSection struct {
	Titulo string `json:"titulo,omitempty"`
}

// OpportunityName returns the deal title, defaulting to one derived from
// the customer name.
func (p ProposalPayload) OpportunityName() string {
	if p.Negocio.Titulo != "" {
		return p.Negocio.Titulo
	}
	return fmt.Sprintf("Proposta para %s", p.Cliente.Nome)
}
