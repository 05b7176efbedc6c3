package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Options configures the process logger.
type Options struct {
	Dev         bool
	Service     string
	Environment string
	SentryDSN   string
	// Output defaults to stdout.
	Output      io.Writer
}

// Init installs the default slog logger.
// Development: text, debug level. Otherwise: JSON, info level.
// Every record carries the service and environment; errors also go to Sentry
// when a DSN is configured. Gin's route and debug output is routed through it.
func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handlers []slog.Handler
	if opts.Dev {
		handlers = append(handlers, slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			Environment:      opts.Environment,
			ServerName:       opts.Service,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	log := slog.New(handler).With("service", opts.Service, "env", opts.Environment)
	slog.SetDefault(log)

	gin.DebugPrintRouteFunc = func(method, path, handlerName string, nuHandlers int) {
		log.Debug("route registered", "method", method, "path", path, "handler", handlerName, "chain", nuHandlers)
	}
	gin.DebugPrintFunc = func(format string, values ...any) {
		log.Debug(strings.TrimSpace(fmt.Sprintf(format, values...)), "component", "gin")
	}
	return log
}
