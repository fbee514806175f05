package council

import (
	"errors"
	"fmt"

	"github.com/esir-council/esir/src/logging"
)

var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrVotingClosed       = errors.New("voting is closed")
	ErrInvalidChoice      = errors.New("invalid vote choice")
	ErrAlreadyVoted       = errors.New("already voted in this poll")
	ErrAlreadyRecorded    = errors.New("attendance already recorded")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrConflict           = errors.New("conflict")
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidInput       = errors.New("invalid input")
)

// lookupErr maps a gorm lookup failure onto ErrNotFound, keeping any other
// storage error as is.
func lookupErr(err error, what string, id uint64) error {
	if logging.IsNotFound(err) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}
