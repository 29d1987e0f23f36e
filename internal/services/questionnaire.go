package services

import (
	"context"

	"github.com/carepoint-rx/carepoint/internal/api"
)

// GetQuestionnaire returns the medical intake questionnaire
func (s *Service) GetQuestionnaire(ctx context.Context) (*Questionnaire, error) {
	var resp api.Envelope[Questionnaire]
	if err := s.gw.Get(ctx, "/questionnaire", &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// SubmitQuestionnaire sends the user's answers
func (s *Service) SubmitQuestionnaire(ctx context.Context, in QuestionnaireSubmission) error {
	if err := validateInput("questionnaire", in); err != nil {
		return err
	}

	var resp api.Message
	return s.gw.Post(ctx, "/questionnaire/submit", in, &resp)
}
