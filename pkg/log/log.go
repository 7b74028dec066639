package log

import (
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is the process wide logger. It discards everything until InitLogger
// is called, so library code can log unconditionally.
var Logger = log.NewNopLogger()

// InitLogger installs a logfmt logger on stderr filtered at lvl
// (debug, info, warn or error).
func InitLogger(lvl string) {
	Logger = NewLogger(os.Stderr, lvl)
}

// NewLogger returns a logfmt logger writing to w, filtered at lvl.
func NewLogger(w io.Writer, lvl string) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(w))
	l = level.NewFilter(l, allow(lvl))
	return log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func allow(lvl string) level.Option {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
