package analytics

import (
	"fmt"
	"math"
	"strings"

	"SignalEngine/internal/domain/models"
	domsvc "SignalEngine/internal/domain/service"
	"SignalEngine/internal/services/features"
	"SignalEngine/internal/services/indicators"
	"SignalEngine/pkg/config"
)

// CrashDetector flags a crash when at least two of four independent
// indicators fire. Missing inputs leave their indicator false.
type CrashDetector struct {
	cfg config.CrashConfig
	ind config.IndicatorConfig
}

func NewCrashDetector(cfg config.CrashConfig, ind config.IndicatorConfig) *CrashDetector {
	return &CrashDetector{cfg: cfg, ind: ind}
}

func (d *CrashDetector) Detect(data models.MarketData) models.CrashSignal {
	snap := data.Snapshot
	change := finiteOr(snap.Change24h, 0)

	var flags models.CrashIndicators
	flags.RapidDrop = change <= d.cfg.RapidDropPct
	flags.HighVolatility = snap.SpreadPct() > d.cfg.VolatilitySpreadPct

	volumes := features.Volumes(data.Candles)
	if ratio, err := indicators.VolumeRatio(volumes, d.ind.VolumePeriod); err == nil {
		flags.VolumeSpike = ratio >= d.cfg.VolumeSpikeMultiple
	}
	if rsi, err := indicators.RSI(features.Closes(data.Candles), d.ind.RSIPeriod); err == nil {
		flags.OversoldExtreme = indicators.Round(rsi, d.ind.Precision) <= d.cfg.RSIOversold
	}

	count := flags.Count()
	sig := models.CrashSignal{
		IsCrashing: count >= 2,
		Severity:   d.severity(count, change),
		Confidence: d.confidence(count, change),
		Indicators: flags,
	}
	sig.Recommendation = crashRecommendation(sig, change)
	return sig
}

// severity is non-decreasing in the indicator count for a fixed drop.
func (d *CrashDetector) severity(count int, change float64) models.Severity {
	switch {
	case count < 2:
		return models.SeverityLow
	case count == 4 && change <= d.cfg.TertiaryDropPct:
		return models.SeverityExtreme
	case count == 4 || change <= d.cfg.SecondaryDropPct:
		return models.SeverityHigh
	case count == 3:
		return models.SeverityMedium
	}
	return models.SeverityLow
}

// confidence grows with the indicator count and with the size of the drop
// relative to the tertiary threshold.
func (d *CrashDetector) confidence(count int, change float64) float64 {
	base := float64(count) / 4 * 70
	bonus := 0.0
	if change < 0 && d.cfg.TertiaryDropPct < 0 {
		bonus = math.Min(30, change/d.cfg.TertiaryDropPct*30)
	}
	return indicators.Round(indicators.Confidence(base+bonus), 2)
}

func crashRecommendation(sig models.CrashSignal, change float64) string {
	if !sig.IsCrashing {
		if sig.Indicators.Count() == 1 {
			return fmt.Sprintf("No crash detected; one warning sign present (%s).", strings.Join(firedCrash(sig.Indicators), ", "))
		}
		return "No crash detected."
	}
	fired := strings.Join(firedCrash(sig.Indicators), ", ")
	switch sig.Severity {
	case models.SeverityExtreme:
		return fmt.Sprintf("Extreme crash in progress (%.2f%% in 24h): %s. Stay out and protect capital.", change, fired)
	case models.SeverityHigh:
		return fmt.Sprintf("Severe sell-off (%.2f%% in 24h): %s. Avoid new long positions.", change, fired)
	case models.SeverityMedium:
		return fmt.Sprintf("Crash conditions forming: %s. Reduce exposure and tighten stops.", fired)
	}
	return fmt.Sprintf("Early crash warning: %s. Wait for stabilization before entering.", fired)
}

func firedCrash(f models.CrashIndicators) []string {
	var out []string
	if f.RapidDrop {
		out = append(out, "rapid drop")
	}
	if f.VolumeSpike {
		out = append(out, "volume spike")
	}
	if f.OversoldExtreme {
		out = append(out, "extreme oversold RSI")
	}
	if f.HighVolatility {
		out = append(out, "high volatility")
	}
	return out
}

var _ domsvc.CrashDetector = (*CrashDetector)(nil)
