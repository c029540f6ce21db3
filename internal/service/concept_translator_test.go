package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/student-portal-api/internal/models"
)

func TestConceptTranslatorDefaults(t *testing.T) {
	translator := NewConceptTranslator(nil, nil)

	display := translator.Translate(models.ConceptRecord{ID: "r1", Concept: "A", UnitCode: "UNIT1", ResultCode: "APPROVED", EnrollmentKey: "k1"})
	assert.Equal(t, models.DisplayConcept{ID: "r1", Concept: "A", Unit: "Unidade 1", Result: "Aprovado", EnrollmentKey: "k1"}, display)

	assert.Equal(t, "Reprovado", translator.ResultLabel("REPROVED"))
	assert.Equal(t, "Reprovado", translator.ResultLabel("FAILED"))
	assert.Equal(t, "Unidade 4", translator.UnitLabel("UNIT4"))
}

func TestConceptTranslatorPassesUnknownCodesThrough(t *testing.T) {
	translator := NewConceptTranslator(nil, nil)

	display := translator.Translate(models.ConceptRecord{UnitCode: "UNIT9", ResultCode: "PENDING"})
	assert.Equal(t, "UNIT9", display.Unit)
	assert.Equal(t, "PENDING", display.Result)
	assert.Equal(t, "", translator.UnitLabel(""))
}

func TestConceptTranslatorOverrides(t *testing.T) {
	translator := NewConceptTranslator(map[string]string{"unit5": "Recuperação"}, map[string]string{"APPROVED": "Aprovado(a)"})

	assert.Equal(t, "Recuperação", translator.UnitLabel("UNIT5"))
	assert.Equal(t, "Unidade 1", translator.UnitLabel("UNIT1"))
	assert.Equal(t, "Aprovado(a)", translator.ResultLabel("APPROVED"))
	assert.Equal(t, "Aprovado", NewConceptTranslator(nil, nil).ResultLabel("APPROVED"))
}

func TestConceptTranslatorMatchesCodesIgnoringCase(t *testing.T) {
	translator := NewConceptTranslator(map[string]string{"unit5": "Recuperação"}, nil)

	assert.Equal(t, "Recuperação", translator.UnitLabel("unit5"))
	assert.Equal(t, "Unidade 1", translator.UnitLabel(" unit1"))
	assert.Equal(t, "Aprovado", translator.ResultLabel("approved"))
	assert.Equal(t, "unit9", translator.UnitLabel("unit9"))
}

func TestTranslateAllKeepsOrderAndNeverNil(t *testing.T) {
	translator := NewConceptTranslator(nil, nil)

	assert.NotNil(t, translator.TranslateAll(nil))
	assert.Empty(t, translator.TranslateAll(nil))

	display := translator.TranslateAll([]models.ConceptRecord{{ID: "b", UnitCode: "UNIT2"}, {ID: "a", UnitCode: "UNIT1"}})
	assert.Equal(t, models.ConceptRecordID("b"), display[0].ID)
	assert.Equal(t, "Unidade 2", display[0].Unit)
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Evento", CategoryLabel(models.NotificationCategoryEvent))
	assert.Equal(t, "Comunicado", CategoryLabel(models.NotificationCategoryNews))
	assert.Equal(t, "ALERT", CategoryLabel("ALERT"))
}
