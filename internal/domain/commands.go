package domain

import (
	"fmt"
	"strings"
)

// Command is an inbound request from a connection. The set of variants is closed.
type Command interface {
	// Name is the wire event name of the command.
	Name() string
	// Validate checks the payload before it reaches a session.
	Validate() error
	command()
}

const (
	CmdCreateSession = "create-game"
	CmdJoinSession   = "join-game"
	CmdStartGame     = "start-game"
	CmdStartQuestion = "start-question"
	CmdSubmitAnswer  = "submit-answer"
	CmdNextQuestion  = "next-question"
	CmdEndGame       = "end-game"
	CmdResetGame     = "reset-game"
	CmdDisconnect    = "disconnect"
)

const maxNameLength = 32

type CreateSession struct {
	HostName string
}

type JoinSession struct {
	Code       string
	PlayerName string
}

type StartGame struct{ Code string }

type StartQuestion struct{ Code string }

type SubmitAnswer struct {
	Code   string
	Option int
}

type NextQuestion struct{ Code string }

type EndGame struct{ Code string }

type ResetGame struct{ Code string }

// Disconnect is synthesized by the transport when a connection goes away.
type Disconnect struct{}

func (CreateSession) Name() string { return CmdCreateSession }
func (JoinSession) Name() string   { return CmdJoinSession }
func (StartGame) Name() string     { return CmdStartGame }
func (StartQuestion) Name() string { return CmdStartQuestion }
func (SubmitAnswer) Name() string  { return CmdSubmitAnswer }
func (NextQuestion) Name() string  { return CmdNextQuestion }
func (EndGame) Name() string       { return CmdEndGame }
func (ResetGame) Name() string     { return CmdResetGame }
func (Disconnect) Name() string    { return CmdDisconnect }

func (CreateSession) command() {}
func (JoinSession) command()   {}
func (StartGame) command()     {}
func (StartQuestion) command() {}
func (SubmitAnswer) command()  {}
func (NextQuestion) command()  {}
func (EndGame) command()       {}
func (ResetGame) command()     {}
func (Disconnect) command()    {}

func (c CreateSession) Validate() error { return validateName(c.HostName) }

func (c JoinSession) Validate() error {
	if err := validateCode(c.Code); err != nil {
		return err
	}
	return validateName(c.PlayerName)
}

func (c StartGame) Validate() error     { return validateCode(c.Code) }
func (c StartQuestion) Validate() error { return validateCode(c.Code) }
func (c SubmitAnswer) Validate() error  { return validateCode(c.Code) }
func (c NextQuestion) Validate() error  { return validateCode(c.Code) }
func (c EndGame) Validate() error       { return validateCode(c.Code) }
func (c ResetGame) Validate() error     { return validateCode(c.Code) }
func (Disconnect) Validate() error      { return nil }

// NormalizeCode trims and upper-cases a session code as typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateCode(code string) error {
	if NormalizeCode(code) == "" {
		return fmt.Errorf("%w: missing game code", ErrInvalidCommand)
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCommand)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidCommand, maxNameLength)
	}
	return nil
}
