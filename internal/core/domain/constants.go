package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")
	ErrEmptyPrompt        = errors.New("empty prompt")
	ErrSendEmpty          = errors.New("attempted to send no messages")
	ErrPermission         = errors.New("missing permission")
	ErrCredential         = errors.New("credential unavailable")
	ErrUpstream           = errors.New("upstream service failure")
	ErrUnknownAction      = errors.New("unknown action")
)

var (
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrDurationEmpty    = fmt.Errorf("%w: no time given", ErrInvalidDuration)
	ErrDurationSyntax   = fmt.Errorf("%w: time metric is invalid", ErrInvalidDuration)
	ErrDurationOverflow = fmt.Errorf("%w: time metric is too large", ErrInvalidDuration)
	ErrDurationZero     = fmt.Errorf("%w: duration must be positive", ErrInvalidDuration)
)

// SendError reports a segment the gateway refused, keeping its content for
// diagnostics. Segments sent before it are not rolled back.
type SendError struct {
	Content string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send message segment (%d chars): %v", len([]rune(e.Content)), e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// ActionError tags a handler failure with the action that produced it.
type ActionError struct {
	Action Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s action failed: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

type TokenKey string

const (
	OpenWeatherToken TokenKey = "OPEN_WEATHER_TOKEN"
	DeepSeekToken    TokenKey = "DEEPSEEK_TOKEN"
	DiscordToken     TokenKey = "DISCORD_TOKEN"
	TelegramToken    TokenKey = "TELEGRAM_TOKEN"
	MatrixToken      TokenKey = "MATRIX_TOKEN"
)

var tokenKeys = []TokenKey{OpenWeatherToken, DeepSeekToken, DiscordToken, TelegramToken, MatrixToken}

func TokenKeys() []TokenKey {
	keys := make([]TokenKey, len(tokenKeys))
	copy(keys, tokenKeys)
	return keys
}

func ParseTokenKey(key string) (TokenKey, error) {
	for _, k := range tokenKeys {
		if string(k) == key {
			return k, nil
		}
	}

	return "", fmt.Errorf("failed to parse key (%s) into token", key)
}
