package present

import (
	"fmt"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
)

// Card is one labeled metric. Delta is the secondary line under the value.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
}

// Panel is the titled group of four metric cards.
type Panel struct {
	Mode  domain.Mode `json:"mode"`
	Title string      `json:"title,omitempty"`
	Cards []Card      `json:"cards"`
}

// Cards lays out snap as four cards. A snapshot in none mode yields an
// empty panel.
func Cards(snap domain.MetricsSnapshot, scenarioName string) Panel {
	switch snap.Mode {
	case domain.ModeComparative:
		return comparativeCards(snap, scenarioName)
	case domain.ModeOverview:
		return overviewCards(snap.Full)
	default:
		return Panel{Mode: domain.ModeNone, Cards: []Card{}}
	}
}

func overviewCards(full domain.Totals) Panel {
	return Panel{
		Mode:  domain.ModeOverview,
		Title: "Visão Geral",
		Cards: []Card{
			{Label: "Total de Empresas", Value: Integer.Format(float64(full.Count))},
			{Label: "Total de Empregados", Value: Integer.Format(full.Employees)},
			{Label: "Massa Salarial Total", Value: BRL(full.Payroll)},
			{Label: "Média Salarial Geral", Value: BRL(full.MeanSalary)},
		},
	}
}

func comparativeCards(snap domain.MetricsSnapshot, scenarioName string) Panel {
	full := snap.Full
	var (
		sub domain.Totals
		pct domain.Percentages
	)
	if snap.Subset != nil {
		sub = *snap.Subset
	}
	if snap.Percent != nil {
		pct = *snap.Percent
	}

	return Panel{
		Mode:  domain.ModeComparative,
		Title: "Impacto Comparativo para o Cenário: " + scenarioName,
		Cards: []Card{
			{
				Label: "Empresas Atingidas",
				Value: Integer.Format(float64(sub.Count)),
				Delta: totalDelta(Integer.Format(float64(full.Count)), pct.Count),
			},
			{
				Label: "Empregados Atingidos",
				Value: Integer.Format(sub.Employees),
				Delta: totalDelta(Integer.Format(full.Employees), pct.Employees),
			},
			{
				Label: "Massa Salarial Atingida",
				Value: BRL(sub.Payroll),
				Delta: totalDelta(Currency.Format(full.Payroll), pct.Payroll),
			},
			{
				Label: "Média Salarial (Atingidos)",
				Value: BRL(sub.MeanSalary),
				Delta: fmt.Sprintf("de %s no Total", Currency.Format(full.MeanSalary)),
			},
		},
	}
}

func totalDelta(total string, pct float64) string {
	return fmt.Sprintf("de %s no Total (%s%%)", total, Percent.Format(pct))
}
