package service

import (
	"strings"

	"github.com/noah-isme/student-portal-api/internal/models"
)

var (
	defaultUnitLabels = map[string]string{
		"UNIT1": "Unidade 1",
		"UNIT2": "Unidade 2",
		"UNIT3": "Unidade 3",
		"UNIT4": "Unidade 4",
	}
	defaultResultLabels = map[string]string{
		"APPROVED": "Aprovado",
		"REPROVED": "Reprovado",
		"FAILED":   "Reprovado",
	}
	categoryLabels = map[models.NotificationCategory]string{
		models.NotificationCategoryEvent: "Evento",
		models.NotificationCategoryNews:  "Comunicado",
	}
)

// ConceptTranslator maps backend unit and result codes to display labels.
// Translation is total: unknown codes are returned unchanged.
type ConceptTranslator struct {
	units   map[string]string
	results map[string]string
}

// NewConceptTranslator builds a translator from the default tables with the given overrides merged on top.
func NewConceptTranslator(unitOverrides, resultOverrides map[string]string) *ConceptTranslator {
	return &ConceptTranslator{
		units:   mergeLabels(defaultUnitLabels, unitOverrides),
		results: mergeLabels(defaultResultLabels, resultOverrides),
	}
}

func mergeLabels(base, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overrides))
	for code, label := range base {
		merged[code] = label
	}
	for code, label := range overrides {
		merged[strings.ToUpper(code)] = label
	}
	return merged
}

// UnitLabel returns the display label for a unit code.
func (t *ConceptTranslator) UnitLabel(code string) string {
	return lookupLabel(t.units, code)
}

// ResultLabel returns the display label for a result code.
func (t *ConceptTranslator) ResultLabel(code string) string {
	return lookupLabel(t.results, code)
}

// Translate produces the display form of a concept record.
func (t *ConceptTranslator) Translate(record models.ConceptRecord) models.DisplayConcept {
	return models.DisplayConcept{
		ID:            record.ID,
		Concept:       record.Concept,
		Unit:          t.UnitLabel(record.UnitCode),
		Result:        t.ResultLabel(record.ResultCode),
		EnrollmentKey: record.EnrollmentKey,
	}
}

// TranslateAll translates records preserving order. The result is never nil.
func (t *ConceptTranslator) TranslateAll(records []models.ConceptRecord) []models.DisplayConcept {
	display := make([]models.DisplayConcept, 0, len(records))
	for _, record := range records {
		display = append(display, t.Translate(record))
	}
	return display
}

// CategoryLabel returns the badge label of a notification category.
func CategoryLabel(category models.NotificationCategory) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return string(category)
}

// lookupLabel matches codes case-insensitively; table keys are upper case.
func lookupLabel(table map[string]string, code string) string {
	if label, ok := table[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return label
	}
	return code
}
