package rag

import (
	"strings"

	"github.com/xxxsen/medassist/internal/model"
)

const (
	SymptomNote = "Note: Monitor these symptoms and consult your healthcare provider if they persist."
	DiseaseNote = "Note: Please follow your healthcare provider's recommendations for this condition."
)

// Customize appends at most one advisory note per category when the answer
// mentions a profile term. Applying it again never adds a second note.
func Customize(answer string, profile *model.HealthProfile) string {
	if profile == nil {
		return answer
	}
	// Notes themselves must not count as mentions.
	body := strings.ReplaceAll(answer, SymptomNote, "")
	body = strings.ReplaceAll(body, DiseaseNote, "")
	if !strings.Contains(answer, SymptomNote) && mentionsAny(body, profile.Symptoms) {
		answer += "\n" + SymptomNote
	}
	if !strings.Contains(answer, DiseaseNote) && mentionsAny(body, profile.Diseases) {
		answer += "\n" + DiseaseNote
	}
	return answer
}

func mentionsAny(answer, terms string) bool {
	lower := strings.ToLower(answer)
	for _, term := range strings.Split(terms, ",") {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
