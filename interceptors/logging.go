package interceptors

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/zoobzio/aspect"
)

type maskKey struct {
	member string
	index  int
}

// Logging logs every invocation through slog. Failures are logged at
// Error level; everything else at the configured level.
type Logging struct {
	logger *slog.Logger
	level  slog.Level
	args   bool
	masks  map[maskKey]Masker
}

// NewLogging returns a Logging interceptor. A nil logger uses slog.Default.
func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger, level: slog.LevelInfo}
}

// WithLevel sets the level for start and completion records.
func (l *Logging) WithLevel(level slog.Level) *Logging {
	l.level = level
	return l
}

// WithArguments logs the arguments of each call.
func (l *Logging) WithArguments() *Logging {
	l.args = true
	return l
}

// Mask hides argument index of member behind m. It implies WithArguments.
// Member may be aspect.AllMembers.
func (l *Logging) Mask(member string, index int, m Masker) *Logging {
	if l.masks == nil {
		l.masks = make(map[maskKey]Masker)
	}
	l.masks[maskKey{member, index}] = m
	l.args = true
	return l
}

// CapturesArguments implements aspect.ArgumentCapturer.
func (l *Logging) CapturesArguments() bool { return l.args }

// Intercept implements aspect.Interceptor.
func (l *Logging) Intercept(inv *aspect.Invocation) error {
	ctx := inv.Context()
	m := inv.Method()

	attrs := []any{slog.String("member", m.String())}
	if l.args && inv.Captured() {
		attrs = append(attrs, l.arguments(m, inv.Arguments()))
	}
	l.logger.Log(ctx, l.level, "invoking member", attrs...)

	start := time.Now()
	err := inv.Proceed()
	duration := time.Since(start)

	if err != nil {
		l.logger.Log(ctx, slog.LevelError, "member failed",
			slog.String("member", m.String()),
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
		return err
	}

	l.logger.Log(ctx, l.level, "member completed",
		slog.String("member", m.String()),
		slog.Duration("duration", duration),
	)
	return nil
}

func (l *Logging) arguments(m *aspect.Member, args []any) slog.Attr {
	attrs := make([]any, 0, len(args))
	for i, v := range args {
		if i == m.Context {
			continue
		}
		name := m.Params[i].Name
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		if masker := l.masker(m.Name, i); masker != nil {
			v = masker.Mask(fmt.Sprint(v))
		}
		attrs = append(attrs, slog.Any(name, v))
	}
	return slog.Group("args", attrs...)
}

func (l *Logging) masker(member string, index int) Masker {
	if m, ok := l.masks[maskKey{member, index}]; ok {
		return m
	}
	return l.masks[maskKey{aspect.AllMembers, index}]
}
