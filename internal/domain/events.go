package domain

// Outbound message types sent to connections.
const (
	MsgGameCreated      = "game-created"
	MsgJoinError        = "join-error"
	MsgError            = "error"
	MsgPlayerJoined     = "player-joined"
	MsgGameUpdate       = "game-update"
	MsgGameStarted      = "game-started"
	MsgQuestionStarted  = "question-started"
	MsgTimerUpdate      = "timer-update"
	MsgQuestionEnded    = "question-ended"
	MsgPlayerAnswered   = "player-answered"
	MsgNextQuestion     = "next-question"
	MsgGameEnded        = "game-ended"
	MsgGameReset        = "game-reset"
	MsgHostDisconnected = "host-disconnected"
	MsgPlayerLeft       = "player-left"
)

// Message is an outbound broadcast or unicast intent.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// GameCreatedPayload is unicast to the host after creation.
type GameCreatedPayload struct {
	GameCode string       `json:"gameCode"`
	Game     SessionState `json:"game"`
}

// PlayerAnsweredPayload is unicast to the host when a player answers.
type PlayerAnsweredPayload struct {
	PlayerName string `json:"playerName"`
	Answer     int    `json:"answer"`
}

// QuestionEndedPayload carries the settled scores of a closed question.
type QuestionEndedPayload struct {
	Game       SessionState `json:"game"`
	Settlement Settlement   `json:"settlement"`
}

// ErrorPayload is unicast on surfaced rejections.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Lifecycle event names published on the event bus.
const (
	EventNameSessionCreated  = "session.created"
	EventNameGameStarted     = "game.started"
	EventNameQuestionSettled = "question.settled"
	EventNameGameFinished    = "game.finished"
	EventNameGameReset       = "game.reset"
	EventNameSessionClosed   = "session.closed"
)

type EventSessionCreated struct {
	Code     string `json:"code"`
	HostName string `json:"hostName"`
}

func (EventSessionCreated) Name() string         { return EventNameSessionCreated }
func (e EventSessionCreated) SessionCode() string { return e.Code }

type EventGameStarted struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
}

func (EventGameStarted) Name() string         { return EventNameGameStarted }
func (e EventGameStarted) SessionCode() string { return e.Code }

type EventQuestionSettled struct {
	Code       string     `json:"code"`
	Settlement Settlement `json:"settlement"`
	Answers    int        `json:"answers"`
}

func (EventQuestionSettled) Name() string         { return EventNameQuestionSettled }
func (e EventQuestionSettled) SessionCode() string { return e.Code }

type EventGameFinished struct {
	Code    string       `json:"code"`
	Players []PlayerView `json:"players"`
	Forced  bool         `json:"forced"`
}

func (EventGameFinished) Name() string         { return EventNameGameFinished }
func (e EventGameFinished) SessionCode() string { return e.Code }

type EventGameReset struct {
	Code string `json:"code"`
}

func (EventGameReset) Name() string         { return EventNameGameReset }
func (e EventGameReset) SessionCode() string { return e.Code }

type EventSessionClosed struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func (EventSessionClosed) Name() string         { return EventNameSessionClosed }
func (e EventSessionClosed) SessionCode() string { return e.Code }
