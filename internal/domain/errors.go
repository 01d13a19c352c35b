package domain

import "errors"

var (
	ErrPlayerNotFound        = errors.New("player not found")
	ErrSessionFull           = errors.New("session is full")
	ErrNotInLobby            = errors.New("session not in lobby")
	ErrNotInProgress         = errors.New("game not in progress")
	ErrNotLeader             = errors.New("actor is not session leader")
	ErrTooFewPlayers         = errors.New("not enough players to start")
	ErrNotYourTurn           = errors.New("not the actor's turn")
	ErrNotAuthorized         = errors.New("actor not authorized for this decision")
	ErrInvalidTransition     = errors.New("invalid state transition")
	ErrInsufficientCoins     = errors.New("not enough coins")
	ErrInsufficientCards     = errors.New("not enough cards in deck")
	ErrAlreadyResponded      = errors.New("player already responded")
	ErrMustCoup              = errors.New("coup is mandatory at ten or more coins")
	ErrActionAlreadyResolved = errors.New("action already resolved")
	ErrNoActivePlayers       = errors.New("no active players remain")
	ErrInvalidTarget         = errors.New("invalid action target")
	ErrUnknownAction         = errors.New("unknown action type")
	ErrInvalidBlockRole      = errors.New("role cannot block this action")
	ErrInvalidSelection      = errors.New("invalid card selection")
)
