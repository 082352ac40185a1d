package service

import (
	"context"
	"errors"
	"strings"

	"relocation_quiz_backend/internal/leads/domain"
	"relocation_quiz_backend/internal/leads/repository"
	"relocation_quiz_backend/internal/leads/transport"
	"relocation_quiz_backend/platform/apperr"
	"relocation_quiz_backend/platform/sanitize"
)

const msgSessionNotFound = "Quiz session not found"

// StartSession registers a quiz session. created is false when the session
// already existed; sessions never change after creation.
func (s *Service) StartSession(ctx context.Context, req *transport.CreateSessionRequest) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req.SessionID = strings.TrimSpace(req.SessionID)
	if err := s.validator.Struct(req); err != nil {
		return false, err
	}

	created, err := s.store.CreateSession(ctx, domain.QuizSession{
		SessionID:   req.SessionID,
		UTMSource:   sanitize.Line(req.UTMSource),
		UTMMedium:   sanitize.Line(req.UTMMedium),
		UTMCampaign: sanitize.Line(req.UTMCampaign),
		UTMTerm:     sanitize.Line(req.UTMTerm),
		UTMContent:  sanitize.Line(req.UTMContent),
		Referrer:    strings.TrimSpace(req.Referrer),
		DeviceType:  sanitize.Line(req.DeviceType),
		Browser:     sanitize.Line(req.Browser),
	})
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("create quiz session", err)
		return false, apperr.Wrap(apperr.KindInternal, msgInternal, err)
	}
	return created, nil
}

// SaveAnswer stores or replaces the answer to one question of a session.
func (s *Service) SaveAnswer(ctx context.Context, sessionID string, req *transport.SaveAnswerRequest) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sessionID = strings.TrimSpace(sessionID)
	if err := s.validator.SessionID(sessionID); err != nil {
		return err
	}
	req.QuestionKey = strings.TrimSpace(req.QuestionKey)
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	err := s.store.UpsertAnswer(ctx, domain.QuizAnswer{
		SessionID:   sessionID,
		Step:        req.Step,
		QuestionKey: req.QuestionKey,
		Value:       []string(req.AnswerValue),
	})
	if errors.Is(err, repository.ErrSessionNotFound) {
		return apperr.NotFound(msgSessionNotFound)
	}
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("save quiz answer", err)
		return apperr.Wrap(apperr.KindInternal, msgInternal, err)
	}
	return nil
}
