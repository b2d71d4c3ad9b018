package workspace

import "errors"

// Отказы валидации: возвращаются синхронно, состояние не меняется.
var (
	ErrNotIdle          = errors.New("another team is already being moved")
	ErrNotDragging      = errors.New("no team is being moved")
	ErrWrongTeam        = errors.New("team does not match the team being moved")
	ErrUnknownTeam      = errors.New("team is not part of this workspace")
	ErrGroupNotFound    = errors.New("group not found")
	ErrGroupNotEmpty    = errors.New("group still has teams and cannot be removed")
	ErrTeamNotInGroup   = errors.New("team is not assigned to any group")
	ErrNoGroups         = errors.New("workspace has no groups with teams")
	ErrCommitInProgress = errors.New("a commit is already in progress")
	ErrInvalidBestOf    = errors.New("best-of must be a positive odd number")
)

// ErrCommitFailed оборачивает неудачное удалённое сохранение. Workspace
// остаётся как был, сохранение можно повторить.
var ErrCommitFailed = errors.New("group assignment commit failed")

// ErrGenerateFailed оборачивает неудачную удалённую генерацию матчей.
var ErrGenerateFailed = errors.New("group match generation failed")
