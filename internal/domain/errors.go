package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrPollNotFound = errors.New("poll not found")
	ErrUserNotFound = errors.New("user not found")

	ErrBanned        = errors.New("user is banned from this room")
	ErrMembersOnly   = errors.New("this room is for members only")
	ErrPrivateRoom   = errors.New("cannot join private room")
	ErrNotModerator  = errors.New("only moderators can perform this action")
	ErrNotCreator    = errors.New("only room creator can manage moderators")
	ErrPrivilegedBan = errors.New("cannot ban creator or moderators")
	ErrNotAuthorized = errors.New("not authorized")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("your account has been deactivated")

	ErrAlreadyVoted  = errors.New("user has already voted on this poll")
	ErrPollNotActive = errors.New("poll is not active")
	ErrPollEnded     = errors.New("poll has ended")
	ErrInvalidOption = errors.New("invalid option")

	ErrInvalidInput = errors.New("invalid input")
)

// SlowModeError — отказ по slow mode с оставшимся временем ожидания.
type SlowModeError struct {
	WaitSeconds int
}

func (e *SlowModeError) Error() string {
	return fmt.Sprintf("slow mode is enabled, please wait %d seconds", e.WaitSeconds)
}

// Invalid помечает ошибку валидации, сохраняя текст для клиента.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
