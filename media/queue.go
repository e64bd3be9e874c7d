package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediakit/record"
	"mediakit/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueueState tracks the deferred processing lifecycle of a queueable
// attachment. The zero value doubles as the non-queueable default.
type QueueState int

const (
	QueueNotApplicable QueueState = iota
	QueueDone
	QueueWaiting
	QueueWorking
	QueueFailed
)

// Text returns the interpolation form of the state. States outside the
// wire set (including Failed) read as "unknown".
func (s QueueState) Text() string {
	switch s {
	case QueueNotApplicable:
		return ""
	case QueueDone:
		return "done"
	case QueueWaiting:
		return "waiting"
	case QueueWorking:
		return "working"
	}

	return "unknown"
}

// IsQueueable reports whether assignments defer processing.
func (m *Manager) IsQueueable() bool {
	return m.cfg.Queueable
}

// IsQueued reports whether the attachment currently has an in-flight
// upload. Strictly greater-than Done, so both Done and the zero
// NotApplicable state read as not queued.
func (m *Manager) IsQueued() bool {
	return m.IsQueueable() && m.QueueState() > QueueDone
}

// QueueState reads the persisted state field.
func (m *Manager) QueueState() QueueState {
	return QueueState(m.attrInt("queue_state"))
}

// QueuedFilePath resolves the staged upload's full path from the queue
// path template and the persisted relative file name.
func (m *Manager) QueuedFilePath() string {
	return m.Interpolator().Interpolate(
		util.JoinPaths(m.cfg.QueuePath, m.attrString("queued_file")), "")
}

// queueFile stages an upload for deferred processing: the canonical file
// moves into a uniquely named subdirectory under the queue path and only
// the queue fields are written. The regular file fields stay untouched
// until a worker picks the item up.
func (m *Manager) queueFile(ctx context.Context, input any) error {
	uf, err := m.files.Make(input)
	if err != nil {
		return err
	}

	target := util.JoinPaths(strings.ReplaceAll(uuid.NewString(), "-", ""), uf.OriginalName)
	queuePath := m.Interpolator().Interpolate(m.cfg.QueuePath, "")

	// Absolute queue paths are local staging directories reachable by
	// rename; anything else goes through the disk adapter.
	if filepath.IsAbs(queuePath) {
		full := filepath.Join(queuePath, filepath.FromSlash(target))

		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("failed to create queue directory, %w", err)
		}

		if err := os.Rename(uf.TempPath, full); err != nil {
			// Rename fails across filesystems, so fall back to a copy.
			if err := copyAndRemove(uf.TempPath, full); err != nil {
				return fmt.Errorf("failed to stage queued file, %w", err)
			}
		}
	} else {
		err := m.dsk.Move(ctx, uf.TempPath, util.JoinPaths(queuePath, target), m.cfg.Visibility)
		if err != nil {
			return err
		}
	}

	m.write("queue_state", int(QueueWaiting))
	m.write("queued_at", time.Now())
	m.write("queued_file", target)

	zap.L().Debug("Attachment queued",
		zap.String("attachment", m.Name),
		zap.String("queued_file", target))

	return nil
}

func copyAndRemove(source, target string) error {
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}

	if err := dst.Close(); err != nil {
		return err
	}

	return os.Remove(source)
}

// updateQueueState writes the state field and, when the record supports
// it, syncs the column immediately so the Working/Done transition is
// observable without a full model save.
func (m *Manager) updateQueueState(s QueueState) {
	if !m.IsQueueable() || m.rec == nil {
		return
	}

	field := m.Name + "_queue_state"
	m.rec.SetField(field, int(s))

	if syncer, ok := m.rec.(record.StateSyncer); ok {
		if err := syncer.SyncState(field, int(s)); err != nil {
			zap.L().Warn("Failed to sync queue state",
				zap.String("attachment", m.Name),
				zap.Int("state", int(s)),
				zap.Error(err))
		}
	}
}

// queueURL picks the placeholder URL matching the current queue state.
func (m *Manager) queueURL(styleName string) string {
	var template string

	switch m.QueueState() {
	case QueueWaiting:
		template = m.cfg.WaitingURL
	case QueueFailed:
		template = m.cfg.FailedURL
	default:
		template = m.cfg.LoadingURL
	}

	if template == "" {
		return ""
	}

	u := m.Interpolator().Interpolate(template, styleName)
	if hasHost(u) {
		return u
	}

	return m.cfg.PrefixURL + u
}
