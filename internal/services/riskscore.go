package services

import (
	"log"
	"math/rand"
	"strings"
)

// Risk categories keyed the way the knowledge base names them.
const (
	RiskHypertension = "АГ (Гипертензия)"
	RiskDiabetes     = "СД2 (Диабет)"
	RiskIschemia     = "ИБС (Сердце)"
)

// Profile is the validated user profile the analysis pipeline runs on.
type Profile struct {
	Age           int
	Gender        string
	SmokingStatus string
	ActivityLevel string
}

// RiskScoreService is a stand-in for the real voice model. It keeps the
// heuristic interface the pipeline expects: scores plus a retrieval
// query derived from the dominant risk.
type RiskScoreService struct {
	rng *rand.Rand
}

func NewRiskScoreService(seed int64) *RiskScoreService {
	return &RiskScoreService{rng: rand.New(rand.NewSource(seed))}
}

// Scores returns mock risk scores in [0,1] per category and the search
// query for the knowledge base.
func (s *RiskScoreService) Scores(p Profile) (map[string]float64, string) {
	baseIHD := 0.05
	if p.Age > 20 {
		baseIHD += float64(p.Age-20) * 0.007
	}
	if p.Gender == "male" {
		baseIHD *= 1.2
	}
	if p.SmokingStatus == "smoker" {
		baseIHD *= 1.5
	}
	if p.ActivityLevel == "sedentary" {
		baseIHD *= 1.3
	}

	scores := map[string]float64{
		RiskHypertension: round2(s.uniform(0.1, 0.75)),
		RiskDiabetes:     round2(s.uniform(0.05, 0.45)),
		RiskIschemia:     round2(clamp01(baseIHD + s.uniform(-0.05, 0.05))),
	}

	highest := RiskIschemia
	for k, v := range scores {
		if v > scores[highest] {
			highest = k
		}
	}

	queryMap := map[string]string{
		RiskHypertension: "давление сосуды",
		RiskDiabetes:     "сахар инсулин",
		RiskIschemia:     "сердце миокард",
	}
	terms := []string{queryMap[highest]}
	if p.SmokingStatus == "smoker" {
		terms = append(terms, "курение")
	}
	switch p.ActivityLevel {
	case "sedentary":
		terms = append(terms, "активность")
	case "active":
		terms = append(terms, "энергия")
	}
	if p.Age > 50 {
		terms = append(terms, "усталость")
	}
	query := strings.Join(terms, " ")

	log.Printf("risk scoring: scores=%v query=%q", scores, query)
	return scores, query
}

func (s *RiskScoreService) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 {
	return float64(int(clamp01(v)*100+0.5)) / 100
}
