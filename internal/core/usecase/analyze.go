package usecase

import (
	"github.com/kirillkom/kyc-compliance/internal/core/compliance"
	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

// AnalyzeUseCase classifies and validates text with no side effects.
type AnalyzeUseCase struct {
	classifier *compliance.Classifier
	engine     *compliance.Engine
}

func NewAnalyzeUseCase(policy compliance.Policy) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		classifier: compliance.NewClassifier(),
		engine:     compliance.NewEngine(policy),
	}
}

func (uc *AnalyzeUseCase) Analyze(filename, text string) domain.Analysis {
	classification := uc.classifier.Classify(filename, text)
	result := uc.engine.Validate(classification.DocumentType, text)
	result.Filename = filename
	result.Confidence = classification.Confidence
	return domain.Analysis{Classification: classification, Result: result}
}
