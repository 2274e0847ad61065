package assistant

import (
	"context"
	"strings"
	"time"

	"caixinha/internal/core"
	"caixinha/internal/log"
)

// Fallback answers shown in place of a model reply.
const (
	MsgCouldNotProcess = "Não consegui processar a sua pergunta. Tente novamente."
	MsgConnectionError = "Ocorreu um erro ao conectar com o assistente. Por favor, verifique a configuração da sua chave de API e tente novamente."
)

// Generator is the external text-generation capability.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// Assistant answers questions about the club using a Generator.
type Assistant struct {
	gen     Generator
	timeout time.Duration
	logger  *log.Logger
}

// New creates an assistant. A zero timeout disables the deadline.
func New(gen Generator, timeout time.Duration, logger *log.Logger) *Assistant {
	if logger == nil {
		logger = log.Discard()
	}
	return &Assistant{
		gen:     gen,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentAssistant),
	}
}

// Ask sends question with the brief for r and returns the reply. Failures
// never escape: they are mapped to MsgConnectionError or MsgCouldNotProcess.
func (a *Assistant) Ask(ctx context.Context, question string, r core.Roster) string {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := a.gen.Generate(ctx, BuildBrief(r), question)
	if err != nil {
		a.logger.ErrorContext(ctx, "Error calling text-generation service",
			log.FieldOperation, log.OpAsk,
			log.FieldError, err,
			log.FieldDuration, time.Since(start).Milliseconds())
		return MsgConnectionError
	}
	if strings.TrimSpace(answer) == "" {
		a.logger.WarnContext(ctx, "Empty reply from text-generation service", log.FieldOperation, log.OpAsk)
		return MsgCouldNotProcess
	}

	a.logger.DebugContext(ctx, "Assistant answered",
		log.FieldOperation, log.OpAsk,
		log.FieldDuration, time.Since(start).Milliseconds())
	return answer
}
