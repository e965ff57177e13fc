package models

import (
	"strings"

	"gorm.io/gorm"
)

// Condition is a risk category of the knowledge base.
// Codes follow the scoring service: АГ, СД2, ИБС.
type Condition struct {
	gorm.Model
	Code        string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	NameEn      string
	Supplements []Supplement `gorm:"foreignKey:ConditionID;constraint:OnDelete:CASCADE"`
}

// Supplement is a nutrient recommendation retrievable by keyword search.
type Supplement struct {
	gorm.Model
	ConditionID uint   `gorm:"index;not null"`
	Name        string `gorm:"index;not null"`
	Dosage      string
	Mechanism   string
	// Keywords is a space-separated lowercase term list used by the
	// retrieval scorer.
	Keywords string
	Warnings string
}

func (s *Supplement) KeywordList() []string {
	return strings.Fields(s.Keywords)
}

// PublicMap returns the supplement fields exposed through the analyze
// response.
func (s *Supplement) PublicMap() map[string]any {
	return map[string]any{
		"name":      s.Name,
		"dosage":    s.Dosage,
		"mechanism": s.Mechanism,
		"warnings":  s.Warnings,
	}
}
