package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/esports-league/repositories"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrNotFound           = errors.New("requested resource not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrSessionNotFound    = errors.New("workspace session not found or expired")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrInvalidScore            = errors.New("scores must be non-negative")
	ErrInvalidStatus           = errors.New("invalid match status")
	ErrInvalidStatusTransition = errors.New("invalid match status transition")
	ErrMatchCompleted          = errors.New("match is already completed")
	ErrMatchNotReady           = errors.New("match cannot be completed before both teams are known")
	ErrInvalidWinner           = errors.New("winner must be one of the match teams and agree with the score")
	ErrPlayoffTie              = errors.New("playoff matches cannot end in a tie")
	ErrInvalidBestOf           = errors.New("best-of must be a positive odd number")
	ErrNotEnoughTeams          = errors.New("not enough teams")
	ErrTeamNotInTournament     = errors.New("team is not registered for this tournament")
	ErrDuplicateAssignment     = errors.New("team is assigned to more than one group")
	ErrGroupStageMissing       = errors.New("tournament has no group stage to seed from")
	ErrGroupStageIncomplete    = errors.New("group stage still has unfinished matches")

	// Ошибки конфликтов
	ErrConflict = errors.New("resource state conflict")

	// Сбой удалённого хранилища
	ErrRemote = errors.New("tournament storage failure")
)

// handleRepositoryError maps repository errors onto service errors. Unknown
// errors are wrapped with ErrRemote and op.
func handleRepositoryError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrMatchTeamInvalid), errors.Is(err, repositories.ErrAssignmentTeamInvalid):
		return fmt.Errorf("%w: %w", ErrTeamNotInTournament, err)
	case errors.Is(err, repositories.ErrAssignmentDuplicate):
		return ErrDuplicateAssignment
	case errors.Is(err, repositories.ErrMatchSlotConflict), errors.Is(err, repositories.ErrMatchTournamentInvalid):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrRemote, op, err)
}
