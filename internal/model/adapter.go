package model

import "gart/risk-api/internal/domain"

// RiskAdapter is the bridge between raw attempt input and the classifier:
// it maps UI vocabulary to training vocabulary, builds the feature record,
// and converts the returned probability to a 0-100 model risk.
type RiskAdapter struct {
	clf    Classifier
	mapper *Mapper
}

// NewRiskAdapter wires a classifier and a vocabulary mapper.
func NewRiskAdapter(clf Classifier, mapper *Mapper) *RiskAdapter {
	return &RiskAdapter{clf: clf, mapper: mapper}
}

// Score returns the model risk for an attempt along with the derived
// model-vocabulary country and action.
func (a *RiskAdapter) Score(in domain.AttemptInput) (modelRisk int, countryModel, actionModel string, err error) {
	countryModel = a.mapper.Country(in.Country)
	actionModel = a.mapper.Action(in.Action)

	vpn := 0
	if in.VPNUsed {
		vpn = 1
	}

	prob, err := a.clf.Predict(domain.FeatureRecord{
		UserID:               in.UserID,
		TimeOfDay:            in.Hour,
		Country:              countryModel,
		DeviceType:           in.Device,
		FailedLoginsLastHour: in.FailedLogins,
		ActionType:           actionModel,
		IsVPN:                vpn,
		TypingSpeed:          in.TypingSpeed,
	})
	if err != nil {
		return 0, countryModel, actionModel, err
	}

	return int(prob * 100), countryModel, actionModel, nil
}
