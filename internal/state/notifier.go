package state

import "github.com/rs/zerolog"

// LogNotifier writes toasts to the log; the CLI's default sink.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "toast").Logger()
	}
	return &LogNotifier{logger: base}
}

func (n *LogNotifier) Success(msg string) {
	n.logger.Info().Str("kind", "success").Msg(msg)
}

func (n *LogNotifier) Error(msg string) {
	n.logger.Warn().Str("kind", "error").Msg(msg)
}
