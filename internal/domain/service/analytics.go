package service

import "SignalEngine/internal/domain/models"

// RegimeClassifier maps market statistics to exactly one regime. It never fails.
type RegimeClassifier interface {
	Classify(in models.RegimeInput) models.MarketRegime
}

// Strategy is one independent signal rule.
type Strategy interface {
	Name() string
	// Affinity lists the regimes in which this strategy leads the fusion.
	Affinity() []models.MarketRegime
	Evaluate(data models.MarketData) (models.StrategySignal, error)
}

// CrashDetector evaluates crash confluence. It never fails.
type CrashDetector interface {
	Detect(data models.MarketData) models.CrashSignal
}

// EntryGenerator evaluates entry confluence. It never fails.
type EntryGenerator interface {
	Generate(data models.MarketData, regime models.MarketRegime) models.EntrySignal
}
