package capnslog

import (
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournaldFormatter writes log entries to the local systemd-journald socket
// via github.com/coreos/go-systemd/v22/journal, mapping capnslog's LogLevel
// onto journald priority and attaching the originating package as the
// SYSLOG_IDENTIFIER field.
type JournaldFormatter struct{}

// NewJournaldFormatter returns a JournaldFormatter, or an error if the
// local journald socket is not reachable (journal.Enabled reports false).
func NewJournaldFormatter() (*JournaldFormatter, error) {
	if !journal.Enabled() {
		return nil, errJournaldUnavailable
	}
	return &JournaldFormatter{}, nil
}

func (j *JournaldFormatter) Format(pkg string, level LogLevel, _ int, entries ...LogEntry) {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.LogString())
	}
	_ = journal.Send(b.String(), journaldPriority(level), map[string]string{
		"SYSLOG_IDENTIFIER": pkg,
	})
}

func journaldPriority(l LogLevel) journal.Priority {
	switch l {
	case CRITICAL:
		return journal.PriEmerg
	case ERROR:
		return journal.PriErr
	case WARNING:
		return journal.PriWarning
	case NOTICE:
		return journal.PriNotice
	case INFO:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

type journaldUnavailableError string

func (e journaldUnavailableError) Error() string { return string(e) }

const errJournaldUnavailable = journaldUnavailableError("capnslog: local journald socket not available")
