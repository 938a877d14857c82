package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live session has the given code.
	ErrSessionNotFound = errors.New("game not found")
	// ErrAlreadyStarted is returned when joining a session that left the lobby.
	ErrAlreadyStarted = errors.New("game has already started")
	// ErrNameTaken is returned when the display name is already used in the session.
	ErrNameTaken = errors.New("player name already taken")
	// ErrAlreadyInSession is returned when a connection tries to create or join a second session.
	ErrAlreadyInSession = errors.New("connection already belongs to a game")
	// ErrInvalidCommand indicates a malformed inbound event.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrUnauthorized is returned when a non-host issues a host command. Not surfaced to clients.
	ErrUnauthorized = errors.New("only the host can do that")
	// ErrWindowClosed is returned for answers outside an open question. Not surfaced to clients.
	ErrWindowClosed = errors.New("answer window closed")
	// ErrInvalidPhase is returned for host commands that do not apply in the current phase. Not surfaced.
	ErrInvalidPhase = errors.New("command not valid in current phase")
	// ErrNotParticipant is returned when a non-player submits an answer. Not surfaced.
	ErrNotParticipant = errors.New("connection is not a player in this game")

	// ErrCodeSpaceExhausted means every session code is in use.
	ErrCodeSpaceExhausted = errors.New("no free session codes")
	// ErrEmptyBank indicates the question bank has no questions.
	ErrEmptyBank = errors.New("question bank is empty")
	// ErrInvalidQuestion indicates a question that cannot be asked or scored.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
)

// IsSilent reports whether err is a rejection that is dropped without telling the client.
func IsSilent(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrWindowClosed) ||
		errors.Is(err, ErrInvalidPhase) ||
		errors.Is(err, ErrNotParticipant)
}
