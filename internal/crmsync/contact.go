package crmsync

import "github.com/enersol/solar-pricing/internal/fieldmap"

// fieldValue pairs a custom field key with the payload value it carries.
type fieldValue struct {
	key   string
	value any
}

// customFieldValues relates each known custom field key to the proposal
// value it carries, in a fixed order. Nil values are dropped before the
// payload is built.
func customFieldValues(p ProposalPayload) []fieldValue {
	return []fieldValue{
		{"contact.cpf_ou_cnpj", stringOrNil(p.Cliente.CPF)},
		{"contact.consumo_medio_mensal", floatOrNil(p.Consumo.ConsumoMedioMensal)},
		{"contact.potncia_dos_mdulos_w", floatOrNil(p.Equipamentos.PotenciaModulosW)},
		{"contact.potncia_do_sistema_kw", floatOrNil(p.Equipamentos.PotenciaSistemaKw)},
		{"contact.quantidade_de_mdulos", floatOrNil(p.Equipamentos.QuantidadeModulos)},
		{"contact.valor_da_proposta_r", floatOrNil(p.ValorProposta)},
		{"contact.observaes_da_proposta", stringOrNil(p.ObservacoesGerais)},
	}
}

// BuildContactPayload assembles the contact-upsert payload: the standard
// contact fields plus one customFields entry per mapped, non-empty value.
// Keys without a mapped id and nil values are omitted entirely — the CRM
// treats null custom fields as deletions.
func BuildContactPayload(p ProposalPayload, locationID string, fields fieldmap.Map) map[string]any {
	payload := map[string]any{
		"locationId": locationID,
	}
	setIfNotEmpty(payload, "name", p.Cliente.Nome)
	setIfNotEmpty(payload, "email", p.Cliente.Email)
	setIfNotEmpty(payload, "phone", p.Cliente.Telefone)
	setIfNotEmpty(payload, "address1", p.Cliente.Endereco)
	setIfNotEmpty(payload, "city", p.Cliente.Cidade)
	setIfNotEmpty(payload, "source", p.Cliente.Origem)

	var custom []map[string]any
	for _, fv := range customFieldValues(p) {
		if fv.value == nil {
			continue
		}
		id, ok := fields.ID(fv.key)
		if !ok {
			continue
		}
		custom = append(custom, map[string]any{"id": id, "field_value": fv.value})
	}
	if len(custom) > 0 {
		payload["customFields"] = custom
	}
	return payload
}

func setIfNotEmpty(payload map[string]any, key, value string) {
	if value != "" {
		payload[key] = value
	}
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
