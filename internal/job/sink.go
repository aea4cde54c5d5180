package job

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/constants"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sink append-only 的 job log 檔, 每行 "<timestamp> <message>"
type Sink struct {
	path   string
	layout string
	now    func() time.Time
	mu     sync.Mutex
}

type SinkOption func(*Sink)

func WithLayout(layout string) SinkOption {
	return func(s *Sink) {
		s.layout = layout
	}
}

func WithSinkClock(now func() time.Time) SinkOption {
	return func(s *Sink) {
		s.now = now
	}
}

func NewSink(path string, opts ...SinkOption) *Sink {
	s := &Sink{
		path:   path,
		layout: constants.LogSinkTimeFormat,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Path() string {
	return s.path
}

// Print 每次寫入都重新開檔, 寫不進去只記到全域 log
func (s *Sink) Print(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Str("line", msg).Msg("open job log failed")
		return
	}
	defer f.Close()

	w := zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatTimestamp: func(i interface{}) string {
			ts, _ := i.(string)
			return ts
		},
	}
	logger := zerolog.New(w)
	logger.Log().
		Str(zerolog.TimestampFieldName, s.now().Format(s.layout)).
		Msg(msg)
}

func (s *Sink) Printf(format string, args ...interface{}) {
	s.Print(fmt.Sprintf(format, args...))
}
