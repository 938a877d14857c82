package http

import (
	"bytes"
	"encoding/json"
	"fmt"

	"live-quiz-service/internal/domain"
)

// envelope is the frame used in both directions.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type createPayload struct {
	HostName string `json:"hostName"`
}

type joinPayload struct {
	GameCode   string `json:"gameCode"`
	PlayerName string `json:"playerName"`
}

type answerPayload struct {
	GameCode string `json:"gameCode"`
	Answer   *int   `json:"answer"`
}

// ParseCommand turns an inbound frame into a command. It does not validate
// field contents; the service does that.
func ParseCommand(msgType string, raw json.RawMessage) (domain.Command, error) {
	switch msgType {
	case domain.CmdCreateSession:
		var p createPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return domain.CreateSession{HostName: p.HostName}, nil

	case domain.CmdJoinSession:
		var p joinPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return domain.JoinSession{Code: p.GameCode, PlayerName: p.PlayerName}, nil

	case domain.CmdSubmitAnswer:
		var p answerPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		if p.Answer == nil {
			return nil, fmt.Errorf("%w: missing answer", domain.ErrInvalidCommand)
		}
		return domain.SubmitAnswer{Code: p.GameCode, Option: *p.Answer}, nil

	case domain.CmdStartGame, domain.CmdStartQuestion, domain.CmdNextQuestion, domain.CmdEndGame, domain.CmdResetGame:
		code, err := decodeCode(raw)
		if err != nil {
			return nil, err
		}
		return codeCommand(msgType, code), nil

	default:
		return nil, fmt.Errorf("%w: unsupported message type %q", domain.ErrInvalidCommand, msgType)
	}
}

func codeCommand(msgType, code string) domain.Command {
	switch msgType {
	case domain.CmdStartGame:
		return domain.StartGame{Code: code}
	case domain.CmdStartQuestion:
		return domain.StartQuestion{Code: code}
	case domain.CmdNextQuestion:
		return domain.NextQuestion{Code: code}
	case domain.CmdEndGame:
		return domain.EndGame{Code: code}
	default:
		return domain.ResetGame{Code: code}
	}
}

// decodeCode accepts either a bare JSON string or {"gameCode": "..."}.
func decodeCode(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var code string
		if err := json.Unmarshal(trimmed, &code); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidCommand, err)
		}
		return code, nil
	}
	var p struct {
		GameCode string `json:"gameCode"`
	}
	if err := decode(raw, &p); err != nil {
		return "", err
	}
	return p.GameCode, nil
}

func decode(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: missing payload", domain.ErrInvalidCommand)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidCommand, err)
	}
	return nil
}
