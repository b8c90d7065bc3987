package threads

import (
	"errors"
)

var (
	ErrEmptyParticipants   = errors.New("no participants provided")
	ErrUnknownUser         = errors.New("unknown user in participants")
	ErrThreadNotFound      = errors.New("thread not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrLastParticipant     = errors.New("cannot remove the last active participant")
)
