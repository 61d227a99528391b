// Package havf computes the HAV-F scoring frame: champion readiness,
// cognitive leverage, NIL trust, and their composite. Scores are pure
// functions of the canonical record plus the injected clock; absence is a nil
// pointer, never zero.
package havf

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/models"
)

// Composite weights. Applied only when all three sub-scores are populated.
const (
	weightChampion  = 0.40
	weightCognitive = 0.35
	weightNILTrust  = 0.25
)

// Documented sentinels for records without the relevant inputs.
const (
	cognitiveSentinel = 25.0
	nilTrustSentinel  = 15.0
)

// Clock is injected so trajectory (age) and the computed-at stamp are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Engine stamps HAV-F onto canonical records.
type Engine struct {
	clock  Clock
	logger *logrus.Logger
}

// New builds an Engine on the wall clock.
func New(logger *logrus.Logger) *Engine {
	return &Engine{clock: realClock{}, logger: logger}
}

// NewWithClock builds an Engine with an injected clock.
func NewWithClock(clock Clock, logger *logrus.Logger) *Engine {
	return &Engine{clock: clock, logger: logger}
}

// Clamp bounds a score into [0, 100] after rounding to one decimal.
func Clamp(x float64) float64 {
	x = math.Round(x*10) / 10
	return math.Max(0, math.Min(100, x))
}

// ScoreAll stamps every record in place.
func (e *Engine) ScoreAll(athletes []models.Athlete) {
	for i := range athletes {
		e.Score(&athletes[i])
	}
}

// Score computes all sub-scores and the composite for one athlete. The
// record's updated_at is restamped with the same instant as the computed-at
// mark, so updated_at never predates an embedded timestamp.
func (e *Engine) Score(a *models.Athlete) {
	now := e.clock.Now()

	champion := e.championReadiness(a, now)
	cognitive := cognitiveLeverage(a.Biometrics)
	nilTrust := nilTrust(a.NILProfile)

	stamp := models.ISOTime(now)
	a.HAVF = models.HAVF{
		ChampionReadiness: champion,
		CognitiveLeverage: cognitive,
		NILTrustScore:     nilTrust,
		LastComputedAt:    stamp,
	}
	a.Meta.UpdatedAt = stamp
	if champion != nil && cognitive != nil && nilTrust != nil {
		composite := Clamp(weightChampion**champion + weightCognitive**cognitive + weightNILTrust**nilTrust)
		a.HAVF.CompositeScore = models.Float(composite)
	}
}

// championReadiness blends performance, physical, and trajectory. Every
// component has a default, so the score is populated for any known sport.
func (e *Engine) championReadiness(a *models.Athlete, now time.Time) *float64 {
	perf := performance(a)
	physical := physicalScore(a.Biometrics)
	trajectory := trajectoryScore(a.Bio, now)

	score := Clamp(0.5*perf + 0.4*physical + 0.1*trajectory)
	return models.Float(score)
}

// performance is the sport-specific linear blend of season stats.
func performance(a *models.Athlete) float64 {
	perf := a.Stats.Performances
	if len(perf) == 0 {
		return 50
	}

	switch a.Sport {
	case "MLB", "KBO", "NPB":
		// Absent war/wpa read as zero, so a stat line without either still
		// lands at the 30-point floor rather than the no-stats neutral 50.
		return Clamp(30*perf["war"] + 200*perf["wpa"] + 30)
	case "NFL":
		if epa, ok := perf["epa"]; ok {
			return Clamp(50 + 2*epa)
		}
		if score, ok := footballYardsBlend(perf); ok {
			return score
		}
	case "NCAA-FB", "HS-FB":
		if score, ok := footballYardsBlend(perf); ok {
			return score
		}
	}
	return 50
}

func footballYardsBlend(perf map[string]float64) (float64, bool) {
	var yards, tds float64
	var seen bool
	for _, k := range []string{"rushing_yards", "receiving_yards", "passing_yards"} {
		if v, ok := perf[k]; ok {
			yards += v
			seen = true
		}
	}
	for _, k := range []string{"rushing_tds", "receiving_tds", "passing_tds"} {
		if v, ok := perf[k]; ok {
			tds += v
			seen = true
		}
	}
	if !seen {
		return 0, false
	}
	return Clamp(yards/100 + 5*tds), true
}

// physicalScore averages the available biometric sub-scores. Missing readings
// are simply not averaged; all absent defaults to 50.
func physicalScore(b *models.Biometrics) float64 {
	if b.Empty() {
		return 50
	}
	var parts []float64
	if b.HRVRmssdMs != nil {
		parts = append(parts, Clamp((*b.HRVRmssdMs-20)*1.25))
	}
	if b.ReactionMs != nil {
		parts = append(parts, Clamp(100-(*b.ReactionMs-150)*0.5))
	}
	if b.GSRMicrosiemens != nil {
		parts = append(parts, Clamp(100-(*b.GSRMicrosiemens-2)*10))
	}
	if b.SleepHours != nil {
		h := *b.SleepHours
		if h >= 7 && h <= 9 {
			parts = append(parts, 100)
		} else {
			parts = append(parts, Clamp(100-20*math.Abs(8-h)))
		}
	}
	return mean(parts)
}

// trajectoryScore maps age bands to ceiling estimates. 24 to 28 is the peak
// window; unknown or out-of-band ages are neutral.
func trajectoryScore(bio *models.Bio, now time.Time) float64 {
	if bio == nil || bio.DOB == "" {
		return 50
	}
	dob, err := time.Parse("2006-01-02", bio.DOB)
	if err != nil {
		return 50
	}
	age := yearsBetween(dob, now)
	switch {
	case age >= 24 && age <= 28:
		return 90
	case age >= 20 && age < 24:
		return 70 + float64(age-20)*5
	case age > 28 && age <= 35:
		return 90 - float64(age-28)*5
	default:
		return 50
	}
}

func yearsBetween(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	return years
}

// cognitiveLeverage blends neural efficiency and composure. A record with no
// biometric inputs at all gets the documented sentinel instead of null.
func cognitiveLeverage(b *models.Biometrics) *float64 {
	if b.Empty() {
		return models.Float(cognitiveSentinel)
	}

	neural := 50.0
	if b.ReactionMs != nil {
		neural = Clamp(100 - (*b.ReactionMs - 150))
	}

	var parts []float64
	if b.HRVRmssdMs != nil {
		parts = append(parts, Clamp((*b.HRVRmssdMs-20)*1.25))
	}
	if b.GSRMicrosiemens != nil {
		parts = append(parts, Clamp(100-(*b.GSRMicrosiemens-2)*10))
	}
	composure := 50.0
	if len(parts) > 0 {
		composure = mean(parts)
	}

	return models.Float(Clamp(0.6*neural + 0.4*composure))
}

// nilTrust blends authenticity, velocity, and salience from the NIL profile.
// An absent or all-null profile gets the documented sentinel.
func nilTrust(p *models.NILProfile) *float64 {
	if p.Empty() {
		return models.Float(nilTrustSentinel)
	}

	authenticity := 50.0
	if p.EngagementRate != nil {
		authenticity = Clamp(*p.EngagementRate * 2000)
	}

	var velocityParts []float64
	if p.DealsLast90d != nil {
		velocityParts = append(velocityParts, Clamp(*p.DealsLast90d*10))
	}
	if p.DealValue90dUSD != nil {
		velocityParts = append(velocityParts, Clamp(*p.DealValue90dUSD/1000))
	}
	velocity := 50.0
	if len(velocityParts) > 0 {
		velocity = mean(velocityParts)
	}

	var salienceParts []float64
	if p.SearchIndex != nil {
		salienceParts = append(salienceParts, Clamp(*p.SearchIndex))
	}
	if p.LocalPopularityIdx != nil {
		salienceParts = append(salienceParts, Clamp(*p.LocalPopularityIdx))
	}
	salience := 50.0
	if len(salienceParts) > 0 {
		salience = mean(salienceParts)
	}

	return models.Float(Clamp(0.6*authenticity + 0.25*velocity + 0.15*salience))
}

func mean(parts []float64) float64 {
	if len(parts) == 0 {
		return 50
	}
	var sum float64
	for _, p := range parts {
		sum += p
	}
	return sum / float64(len(parts))
}
