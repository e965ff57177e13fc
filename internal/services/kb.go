package services

import (
	"regexp"
	"sort"
	"strings"

	"cardiovoice-backend/internal/config"
	"cardiovoice-backend/internal/models"

	"gorm.io/gorm"
)

const maxRetrievalResults = 3

var tokenRe = regexp.MustCompile(`[а-яёa-z0-9\-]+`)

// KnowledgeBaseService retrieves supplements relevant to a search query
// by keyword overlap with synonym expansion. Results are plain data so
// the explanation collaborator can be swapped or mocked freely.
type KnowledgeBaseService struct {
	db       *gorm.DB
	synonyms map[string][]string
}

func NewKnowledgeBaseService() *KnowledgeBaseService {
	return &KnowledgeBaseService{
		db: config.DB,
		synonyms: map[string][]string{
			"усталость":  {"энергия", "митохондрии", "атф", "coq10", "l-карнитин"},
			"давление":   {"аг", "гипертензия", "сосуды", "магний", "вазодилатация"},
			"сердце":     {"миокард", "ибс", "кардио", "ритм", "таурин", "омега"},
			"сахар":      {"глюкоза", "инсулин", "диабет", "сд2", "берберин", "хром"},
			"курение":    {"антиоксидант", "легкие", "сосуды", "воспаление", "эндотелий", "nac"},
			"стресс":     {"магний", "кортизол", "нервная", "сон", "gaba", "мелатонин"},
			"активность": {"суставы", "энергия", "мышцы", "метаболизм"},
			"воспаление": {"crp", "nf-kb", "куркумин", "омега-3", "ресвератрол"},
		},
	}
}

func (s *KnowledgeBaseService) tokenize(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		terms[tok] = struct{}{}
	}
	return terms
}

func (s *KnowledgeBaseService) expandTerms(raw map[string]struct{}) map[string]struct{} {
	expanded := make(map[string]struct{}, len(raw))
	for term := range raw {
		expanded[term] = struct{}{}
		for _, syn := range s.synonyms[term] {
			expanded[syn] = struct{}{}
		}
	}
	return expanded
}

// FindRelevantSupplements scores every supplement by how many of its
// keywords appear in the expanded query terms and returns the top
// matches as response-ready maps.
func (s *KnowledgeBaseService) FindRelevantSupplements(query string) ([]map[string]any, error) {
	terms := s.expandTerms(s.tokenize(query))
	if len(terms) == 0 {
		return nil, nil
	}

	var supplements []models.Supplement
	if err := s.db.Find(&supplements).Error; err != nil {
		return nil, err
	}

	type scored struct {
		supp  models.Supplement
		score int
	}
	var matches []scored
	for _, supp := range supplements {
		score := 0
		for _, kw := range supp.KeywordList() {
			if _, ok := terms[strings.ToLower(kw)]; ok {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{supp: supp, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > maxRetrievalResults {
		matches = matches[:maxRetrievalResults]
	}

	results := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.supp.PublicMap())
	}
	return results, nil
}
