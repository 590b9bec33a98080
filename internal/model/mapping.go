package model

import (
	"strings"

	"gart/risk-api/internal/domain"
)

// DefaultHighRiskCountries is the static high-risk origin list used when the
// deployment does not override it. Curated by the security team, not derived
// from data.
var DefaultHighRiskCountries = []string{
	"Iraq",
	"Syria",
	"Yemen",
	"Sudan",
	"Brazil",
	"South Africa",
}

// identityUpdateActions are the UI actions folded into the classifier's
// update_mobile category.
var identityUpdateActions = map[string]bool{
	"update_mobile":     true,
	"update_email":      true,
	"update_address":    true,
	"digital_id_access": true,
}

// Mapper translates the portal's UI vocabulary into the fixed vocabulary the
// classifier was trained on. Both mappings are total: unrecognised input
// falls through to an explicit default, never an error.
type Mapper struct {
	highRisk map[string]bool
}

// NewMapper builds a Mapper with the given high-risk country list.
// A nil or empty list falls back to DefaultHighRiskCountries.
func NewMapper(highRiskCountries []string) *Mapper {
	if len(highRiskCountries) == 0 {
		highRiskCountries = DefaultHighRiskCountries
	}
	set := make(map[string]bool, len(highRiskCountries))
	for _, c := range highRiskCountries {
		set[c] = true
	}
	return &Mapper{highRisk: set}
}

// Country maps a UI country selection to the three categories the model was
// trained on: KSA, HighRiskCountry, Unknown.
func (m *Mapper) Country(ui string) string {
	if ui == "Saudi Arabia (KSA)" || ui == "KSA" {
		return domain.CountryKSA
	}
	if m.highRisk[ui] {
		return domain.CountryHighRisk
	}
	return domain.CountryUnknown
}

// Action maps a UI action to the four categories the model was trained on:
// view, pay, renew_passport, update_mobile. Unmatched actions default to
// view; the portal adds services faster than the model is retrained.
func (m *Mapper) Action(ui string) string {
	if strings.HasPrefix(ui, "view_") {
		return domain.ActionView
	}
	if strings.HasPrefix(ui, "pay_") || ui == "pay_gov_services" {
		return domain.ActionPay
	}
	if strings.Contains(ui, "passport") && strings.Contains(ui, "renew") {
		return domain.ActionRenewPassport
	}
	if identityUpdateActions[ui] {
		return domain.ActionUpdateMobile
	}
	return domain.ActionView
}
