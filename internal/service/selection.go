package service

import (
	"context"
	"errors"
	"time"

	"github.com/adventskalender/backend/internal/logging"
	"github.com/adventskalender/backend/internal/models"
	"github.com/adventskalender/backend/internal/repo"
)

// SelectionService mutates participant eligibility and attributes every
// mutation to the acting user. All mutations run in single database
// transactions in the repository; this layer resolves the actor,
// validates input and fans out the committed audit entries.
type SelectionService struct {
	Repo  *repo.GormRepo
	Audit *AuditService
}

func (s *SelectionService) Pick(ctx context.Context, count int, forDate time.Time, actor string) ([]models.Participant, error) {
	l := logging.FromContext(ctx).With("svc", "selection.pick", "count", count, "for_date", forDate.Format("2006-01-02"))

	if count < 0 {
		return nil, ErrValidation
	}
	if count == 0 {
		return []models.Participant{}, nil
	}

	actorID, err := s.resolveActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	picked, audited, err := s.Repo.PickWinners(ctx, count, forDate, actorID)
	if err != nil {
		if errors.Is(err, repo.ErrInsufficientParticipants) || errors.Is(err, repo.ErrConcurrentModification) {
			l.Warn("pick_rejected", "error", err)
			return nil, err
		}
		l.Error("pick_failed", "error", err)
		return nil, ErrInternal
	}

	s.Audit.Publish(ctx, audited...)
	l.Info("pick_successful", "picked", len(picked))

	return picked, nil
}

func (s *SelectionService) Unpick(ctx context.Context, participantID int, actor string) error {
	l := logging.FromContext(ctx).With("svc", "selection.unpick", "participant_id", participantID)

	actorID, err := s.resolveActor(ctx, actor)
	if err != nil {
		return err
	}

	audited, err := s.Repo.UnpickWinner(ctx, participantID, actorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return err
		}
		l.Error("unpick_failed", "error", err)
		return ErrInternal
	}

	s.Audit.Publish(ctx, *audited)
	l.Info("unpick_successful")

	return nil
}

func (s *SelectionService) AssignPackage(ctx context.Context, participantID int, pkg string, actor string) error {
	l := logging.FromContext(ctx).With("svc", "selection.assign_package", "participant_id", participantID, "package", pkg)

	if pkg == "" {
		return ErrValidation
	}

	actorID, err := s.resolveActor(ctx, actor)
	if err != nil {
		return err
	}

	audited, err := s.Repo.AssignPackage(ctx, participantID, pkg, actorID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound),
			errors.Is(err, repo.ErrNotAWinnerYet),
			errors.Is(err, repo.ErrPackageConflict):
			l.Warn("assign_rejected", "error", err)
			return err
		}
		l.Error("assign_failed", "error", err)
		return ErrInternal
	}

	s.Audit.Publish(ctx, *audited)
	l.Info("assign_successful")

	return nil
}

func (s *SelectionService) Counts(ctx context.Context) (*repo.ParticipantCounts, error) {
	return s.Repo.ParticipantCounts(ctx)
}

func (s *SelectionService) Eligible(ctx context.Context) ([]models.Participant, error) {
	return s.Repo.EligibleParticipants(ctx)
}

// WinnersByDate groups all winners by their winning date, keyed
// YYYY-MM-DD the way the calendar frontend consumes them.
func (s *SelectionService) WinnersByDate(ctx context.Context) (map[string][]models.Participant, error) {
	winners, err := s.Repo.Winners(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.Participant)
	for _, w := range winners {
		key := w.WonOn.Format("2006-01-02")
		grouped[key] = append(grouped[key], w)
	}
	return grouped, nil
}

func (s *SelectionService) WinnersOn(ctx context.Context, date time.Time) ([]models.Participant, error) {
	return s.Repo.WinnersOn(ctx, date)
}

func (s *SelectionService) WinnerCountOn(ctx context.Context, date time.Time) (int64, error) {
	return s.Repo.WinnerCountOn(ctx, date)
}

func (s *SelectionService) resolveActor(ctx context.Context, actor string) (uint, error) {
	user, err := s.Repo.FindUserByUsername(ctx, actor)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return 0, ErrUnknownActor
		}
		return 0, ErrInternal
	}
	return user.ID, nil
}
