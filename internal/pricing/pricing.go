// Package pricing computes the quoted price for a residential solar
// installation from the technical and financial parameters of a proposal.
package pricing

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// ErrNoGeneration means the module wattage, irradiation index and
// performance ratio multiply to zero generation, so the module count is
// undefined.
var ErrNoGeneration = eris.New("pricing: module wattage, irradiation index and performance ratio must all be non-zero")

// Default values applied to optional Input fields when omitted. They match
// the commercial defaults used by the proposal form.
const (
	DefaultUnitModuleCost   = 1000.0
	DefaultInverterQuantity = 1
	DefaultUnitInverterCost = 3000.0
	DefaultStructureCost    = 500.0
	DefaultCablingCost      = 200.0
	DefaultBaseCostPerKw    = 400.0
	DefaultRoofAdjustment   = 100.0
	DefaultEntryPanelAdjust = 100.0
	DefaultIndirectPercent  = 0.05
	DefaultMarginPercent    = 0.20
	DefaultTaxRate          = 0.15
	DefaultIrradiationIndex = 3.79
	DefaultPerformanceRatio = 0.8
)

// Input carries the proposal parameters. The three consumption/power fields
// are mandatory; every other field falls back to its default when nil, so an
// explicit zero is preserved while an omitted field is not.
type Input struct {
	ConsumoMedioMensal *float64 `json:"consumo_medio_mensal"`
	PotenciaModulosW   *float64 `json:"potencia_modulos_w"`
	PotenciaSistemaKw  *float64 `json:"potencia_sistema_kw"`

	CustoUnitarioModulo   *float64 `json:"custo_unitario_modulo,omitempty"`
	QuantidadeInversor    *int     `json:"quantidade_inversor,omitempty"`
	CustoUnitarioInversor *float64 `json:"custo_unitario_inversor,omitempty"`
	CustoEstrutura        *float64 `json:"custo_estrutura,omitempty"`
	CustoCabos            *float64 `json:"custo_cabos,omitempty"`
	CustoBasePorKw        *float64 `json:"custo_base_por_kw,omitempty"`

	AjusteTelhas        *float64 `json:"ajuste_telhas,omitempty"`
	AjustePadraoEntrada *float64 `json:"ajuste_padrao_entrada,omitempty"`

	PercentualIndiretos *float64 `json:"percentual_indiretos,omitempty"`
	PercentualMargem    *float64 `json:"percentual_margem,omitempty"`
	AliquotaImpostos    *float64 `json:"aliquota_impostos,omitempty"`

	ValorAdicional float64 `json:"valor_adicional,omitempty"`
	FormaDesconto  string  `json:"forma_desconto,omitempty"`
	ValorDesconto  float64 `json:"valor_desconto,omitempty"`

	IndiceIrrad    *float64 `json:"indice_irrad,omitempty"`
	TaxaDesempenho *float64 `json:"taxa_desempenho,omitempty"`
}

// MissingFieldError reports a mandatory Input field that was not supplied.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("pricing: missing mandatory field %q", e.Field)
}

// ModuleCount returns the number of solar modules needed to cover the given
// monthly consumption (kWh), always rounding up.
//
//	dailyConsumption   = monthlyConsumption / 30
//	perModuleDailyGen  = (moduleWattage / 1000) * irradiationIndex * performanceRatio
//	count              = ceil(dailyConsumption / perModuleDailyGen)
//
// Zero wattage, irradiation or performance ratio is a caller error and
// returns ErrNoGeneration; beyond that the engine does not validate
// physical plausibility.
func ModuleCount(monthlyConsumption, moduleWattage, irradiationIndex, performanceRatio float64) (int, error) {
	dailyConsumption := monthlyConsumption / 30.0
	perModule := (moduleWattage / 1000.0) * irradiationIndex * performanceRatio
	if perModule == 0 || math.IsNaN(perModule) || math.IsInf(perModule, 0) {
		return 0, ErrNoGeneration
	}
	return int(math.Ceil(dailyConsumption / perModule)), nil
}

// Calculate runs the full cost rollup and returns the final proposal value,
// rounded to 2 decimal places, half away from zero. The pipeline is, in
// order: module count, equipment cost, labor cost, indirect cost, project
// total, margin, taxes, additional value, discount.
func Calculate(in Input) (float64, error) {
	if in.ConsumoMedioMensal == nil {
		return 0, &MissingFieldError{Field: "consumo_medio_mensal"}
	}
	if in.PotenciaModulosW == nil {
		return 0, &MissingFieldError{Field: "potencia_modulos_w"}
	}
	if in.PotenciaSistemaKw == nil {
		return 0, &MissingFieldError{Field: "potencia_sistema_kw"}
	}

	moduleCount, err := ModuleCount(
		*in.ConsumoMedioMensal,
		*in.PotenciaModulosW,
		orDefault(in.IndiceIrrad, DefaultIrradiationIndex),
		orDefault(in.TaxaDesempenho, DefaultPerformanceRatio),
	)
	if err != nil {
		return 0, err
	}

	equipmentCost := float64(moduleCount)*orDefault(in.CustoUnitarioModulo, DefaultUnitModuleCost) +
		float64(orDefaultInt(in.QuantidadeInversor, DefaultInverterQuantity))*orDefault(in.CustoUnitarioInversor, DefaultUnitInverterCost) +
		orDefault(in.CustoEstrutura, DefaultStructureCost) +
		orDefault(in.CustoCabos, DefaultCablingCost)

	laborCost := *in.PotenciaSistemaKw*orDefault(in.CustoBasePorKw, DefaultBaseCostPerKw) +
		orDefault(in.AjusteTelhas, DefaultRoofAdjustment) +
		orDefault(in.AjustePadraoEntrada, DefaultEntryPanelAdjust)

	indirectCost := (equipmentCost + laborCost) * orDefault(in.PercentualIndiretos, DefaultIndirectPercent)
	projectTotal := equipmentCost + laborCost + indirectCost

	price := projectTotal * (1 + orDefault(in.PercentualMargem, DefaultMarginPercent))
	price *= 1 + orDefault(in.AliquotaImpostos, DefaultTaxRate)
	price += in.ValorAdicional

	price = ParseDiscountMode(in.FormaDesconto).Apply(price, in.ValorDesconto)

	return roundMoney(price), nil
}

// roundMoney rounds to 2 decimal places, half away from zero.
func roundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orDefaultInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
