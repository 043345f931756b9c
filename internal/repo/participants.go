package repo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/adventskalender/backend/internal/models"
)

type ParticipantCounts struct {
	Total    int64
	Won      int64
	Eligible int64
}

func (r *GormRepo) ParticipantCounts(ctx context.Context) (*ParticipantCounts, error) {
	var total, won int64
	if err := r.DB.WithContext(ctx).Model(&models.Participant{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Model(&models.Participant{}).
		Where("won_on IS NOT NULL").Count(&won).Error; err != nil {
		return nil, err
	}
	return &ParticipantCounts{Total: total, Won: won, Eligible: total - won}, nil
}

func (r *GormRepo) EligibleParticipants(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.DB.WithContext(ctx).
		Where("won_on IS NULL").
		Order("id ASC").
		Find(&participants).Error
	return participants, err
}

func (r *GormRepo) Winners(ctx context.Context) ([]models.Participant, error) {
	var winners []models.Participant
	err := r.DB.WithContext(ctx).
		Where("won_on IS NOT NULL").
		Order("won_on ASC, id ASC").
		Find(&winners).Error
	return winners, err
}

func (r *GormRepo) WinnersOn(ctx context.Context, date time.Time) ([]models.Participant, error) {
	var winners []models.Participant
	err := r.DB.WithContext(ctx).
		Where("won_on = ?", date).
		Order("id ASC").
		Find(&winners).Error
	return winners, err
}

func (r *GormRepo) WinnerCountOn(ctx context.Context, date time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Participant{}).
		Where("won_on = ?", date).
		Count(&count).Error
	return count, err
}

// PickWinners marks count eligible participants as winners of forDate
// in one all-or-nothing transaction. The chosen rows are re-guarded
// with "won_on IS NULL" and the affected-row count is compared against
// count, so a concurrent picker claiming one of the chosen rows rolls
// the whole transaction back with ErrConcurrentModification. One audit
// row per winner is written inside the same transaction.
func (r *GormRepo) PickWinners(ctx context.Context, count int, forDate time.Time, actorID uint) ([]models.Participant, []models.AuditEvent, error) {
	var picked []models.Participant
	var audited []models.AuditEvent

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eligible []models.Participant
		if err := tx.Where("won_on IS NULL").Find(&eligible).Error; err != nil {
			return err
		}
		if len(eligible) < count {
			return ErrInsufficientParticipants
		}

		rand.Shuffle(len(eligible), func(i, j int) {
			eligible[i], eligible[j] = eligible[j], eligible[i]
		})
		chosen := eligible[:count]

		ids := make([]int, len(chosen))
		for i, p := range chosen {
			ids[i] = p.ID
		}

		pickingTime := time.Now().UTC()
		res := tx.Model(&models.Participant{}).
			Where("id IN ? AND won_on IS NULL", ids).
			Updates(map[string]any{
				"won_on":       forDate,
				"picked_by":    actorID,
				"picking_time": pickingTime,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(count) {
			return ErrConcurrentModification
		}

		for _, p := range chosen {
			desc := fmt.Sprintf("%s %s (%d) won on %s", p.FirstName, p.LastName, p.ID, forDate.Format("2006-01-02"))
			event := models.AuditEvent{
				TimeOfAction: pickingTime,
				UserID:       &actorID,
				Action:       models.ActionPickedWinner,
				Description:  &desc,
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
			audited = append(audited, event)
		}

		return tx.Where("id IN ?", ids).Order("id ASC").Find(&picked).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return picked, audited, nil
}

// UnpickWinner puts a winner back into the eligible pool, clearing all
// four win columns together.
func (r *GormRepo) UnpickWinner(ctx context.Context, participantID int, actorID uint) (*models.AuditEvent, error) {
	var audited *models.AuditEvent
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Participant{}).
			Where("id = ?", participantID).
			Updates(map[string]any{
				"won_on":             nil,
				"picked_by":          nil,
				"picking_time":       nil,
				"present_identifier": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if res.RowsAffected > 1 {
			return errors.New("unpick touched more than one row")
		}

		desc := fmt.Sprintf("participant %d returned to the raffle", participantID)
		event := models.AuditEvent{
			TimeOfAction: time.Now().UTC(),
			UserID:       &actorID,
			Action:       models.ActionRemovedWinner,
			Description:  &desc,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		audited = &event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audited, nil
}

// AssignPackage sets the present identifier for a winner. The conflict
// scan over winners of the same date runs inside the transaction, but
// there is no row lock equivalent to PickWinners: two concurrent
// assignments of one package on one date can both pass the scan before
// either commits.
func (r *GormRepo) AssignPackage(ctx context.Context, participantID int, pkg string, actorID uint) (*models.AuditEvent, error) {
	var audited *models.AuditEvent
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var participant models.Participant
		if err := tx.Where("id = ?", participantID).First(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if participant.WonOn == nil {
			return ErrNotAWinnerYet
		}

		var conflicts int64
		if err := tx.Model(&models.Participant{}).
			Where("won_on = ? AND present_identifier = ? AND id <> ?", *participant.WonOn, pkg, participantID).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return ErrPackageConflict
		}

		if err := tx.Model(&models.Participant{}).
			Where("id = ?", participantID).
			Update("present_identifier", pkg).Error; err != nil {
			return err
		}

		action := models.ActionPackageSelected
		desc := fmt.Sprintf("package %s assigned to participant %d", pkg, participantID)
		if prev := participant.PresentIdentifier; prev != nil && *prev != "" {
			action = models.ActionPackageChanged
			desc = fmt.Sprintf("package for participant %d changed from %s to %s", participantID, *prev, pkg)
		}
		event := models.AuditEvent{
			TimeOfAction: time.Now().UTC(),
			UserID:       &actorID,
			Action:       action,
			Description:  &desc,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		audited = &event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audited, nil
}
