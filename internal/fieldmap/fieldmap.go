// Package fieldmap maps human-readable custom field keys to the opaque
// field ids the GoHighLevel contact API expects. The mapping is generated
// once per account (fields map command) and loaded read-only at startup.
package fieldmap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/enersol/solar-pricing/pkg/ghl"
)

// Map relates a field key (e.g. "contact.consumo_medio_mensal") to the
// CRM field id. A missing or empty id means the key is unknown on the
// account and must be skipped when building payloads.
type Map map[string]string

// KnownFieldKeys is the canonical list of proposal-related custom field
// keys provisioned on the solar accounts.
var KnownFieldKeys = []string{
	"contact.cpf_ou_cnpj",
	"contact.endereco_de_instalacao",
	"contact.fatura_de_energia",
	"contact.concessionaria_de_energia_local",
	"contact.consumo_medio_mensal",
	"contact.taxa_de_simultaneidade_",
	"contact.ndice_de_irradiao",
	"contact.taxa_de_desempenho_",
	"contact.potncia_dos_mdulos_w",
	"contact.potncia_do_sistema_kw",
	"contact.quantidade_de_mdulos",
	"contact.custo_unitrio_do_mdulo_r",
	"contact.quantidade_de_inversor",
	"contact.custo_unitrio_do_inversor_r",
	"contact.custo_de_estrutura_r",
	"contact.custo_de_cabos_e_componentes_r",
	"contact.custo_base_instalao_por_kw_r",
	"contact.percentual_de_custos_indiretos_",
	"contact.percentual_de_margem_de_lucro_",
	"contact.alquota_de_impostos_sobre_venda_",
	"contact.valor_adicional_r",
	"contact.forma_de_desconto",
	"contact.valor_do_desconto_se_aplicvel",
	"contact.valor_da_proposta_r",
	"contact.observaes_da_proposta",
}

// Load reads a key-to-id mapping document. JSON is the native format;
// .yaml/.yml files are accepted as well.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fieldmap: read %s", path)
	}

	var m Map
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, eris.Wrapf(err, "fieldmap: decode yaml %s", path)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, eris.Wrapf(err, "fieldmap: decode json %s", path)
		}
	}
	return m, nil
}

// ID returns the CRM id for key, with ok=false when the key is unmapped
// or was recorded without an id.
func (m Map) ID(key string) (string, bool) {
	id, ok := m[key]
	return id, ok && id != ""
}

// Build maps each requested key to its id using the account's field
// definitions. Keys absent from the account are kept in the result with an
// empty id (mirroring the generated document layout) and logged.
func Build(fields []ghl.CustomField, keys []string) Map {
	byKey := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.FieldKey != "" {
			byKey[f.FieldKey] = f.ID
		}
	}

	m := make(Map, len(keys))
	for _, key := range keys {
		id, ok := byKey[key]
		if !ok {
			zap.L().Warn("custom field key not found on account", zap.String("key", key))
		}
		m[key] = id
	}
	return m
}
