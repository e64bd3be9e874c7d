package media

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mediakit/disk"
	"mediakit/file"
	"mediakit/record"
	"mediakit/resize"
	"mediakit/style"

	"go.uber.org/zap"
)

// Discard is the assignment sentinel that clears an attachment instead of
// replacing its file. Assigning nil has the same effect.
var Discard = &struct{ name string }{"discard"}

// Manager is one attachment: a named file slot bound to a record, plus the
// staged write and deletion tasks of the current save cycle.
//
// A Manager is not safe for concurrent mutation. The intended model is one
// short-lived instance per in-flight save (construct, assign, commit,
// discard); the injected disk and record collaborators are the shared
// pieces and must tolerate concurrent use.
type Manager struct {
	Name string

	cfg   Config
	dsk   disk.Disk
	rec   record.Record
	files *file.Manager
	rsz   *resize.Resizer

	pending *file.UploadedFile
	writes  map[string]style.Style
	deletes []string
}

// New builds an attachment manager. The config must come from
// ResolveConfig; the template invariant is still re-checked here so a
// hand-built config cannot defer the failure to save time.
func New(name string, cfg Config, d disk.Disk) (*Manager, error) {
	if !strings.Contains(cfg.URL, "{id}") {
		return nil, fmt.Errorf("%w: url template must contain an {id} token", ErrConfig)
	}

	return &Manager{
		Name:  name,
		cfg:   cfg,
		dsk:   d,
		files: file.NewManager(),
		rsz: resize.New(resize.Options{
			Quality:    cfg.Quality,
			AutoOrient: cfg.AutoOrient,
			Palette:    cfg.Palette,
		}),
	}, nil
}

// SetRecord binds the manager to the record owning the attachment fields.
func (m *Manager) SetRecord(rec record.Record) *Manager {
	m.rec = rec
	return m
}

// Record returns the bound record, or nil.
func (m *Manager) Record() record.Record {
	return m.rec
}

// Config returns the resolved attachment configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Filename returns the stored file name, or "" when the slot is empty.
func (m *Manager) Filename() string {
	return m.attrString("file_name")
}

// Assign sets a new file on the attachment. nil or Discard clears it;
// queueable attachments stage the upload for deferred processing;
// everything else takes the immediate path: clear the old variants, stage
// every configured style for writing, and record the new file fields.
// Nothing touches storage until CommitSave.
func (m *Manager) Assign(ctx context.Context, input any) error {
	if input == nil || input == Discard {
		m.Clear()
		return nil
	}

	if m.IsQueueable() {
		return m.queueFile(ctx, input)
	}

	return m.stageFile(input)
}

// stageFile is the immediate path shared by Assign and ProcessQueue.
func (m *Manager) stageFile(input any) error {
	m.Clear()

	uf, err := m.files.Make(input)
	if err != nil {
		return err
	}

	m.pending = uf

	m.write("file_name", uf.OriginalName)
	m.write("file_size", uf.Size)
	m.write("content_type", uf.MimeType)
	m.write("updated_at", time.Now())

	m.write("queued_at", nil)
	m.write("queued_file", nil)

	if m.writes == nil {
		m.writes = map[string]style.Style{}
	}
	maps.Copy(m.writes, m.cfg.Styles)

	return nil
}

// Clear stages the given styles for deletion, or with no arguments stages
// every style and blanks the persisted fields. Nothing is removed until
// the deletions flush.
func (m *Manager) Clear(styles ...string) {
	if len(styles) > 0 {
		for _, name := range styles {
			if p := m.Path(name); p != "" {
				m.deletes = append(m.deletes, p)
			}
		}
		return
	}

	if m.Filename() == "" {
		return
	}

	if !m.cfg.PreserveFiles {
		for name := range m.cfg.Styles {
			if p := m.Path(name); p != "" {
				m.deletes = append(m.deletes, p)
			}
		}
	}

	m.write("file_name", nil)
	m.write("file_size", nil)
	m.write("content_type", nil)
	m.write("updated_at", nil)

	m.write("queue_state", int(QueueDone))
	m.write("queued_at", nil)
	m.write("queued_file", nil)
}

// CommitSave flushes the staged tasks of the current save cycle:
// deletions first (unless old files are kept), then writes. Calling it
// again with empty task lists is a no-op, so a second save cycle without a
// new assignment performs no storage work.
func (m *Manager) CommitSave(ctx context.Context) error {
	if !m.cfg.KeepOldFiles {
		m.flushDeletes(ctx)
	}

	return m.flushWrites(ctx)
}

// Destroy clears the given styles (or everything) and flushes immediately.
// KeepOldFiles only guards overwrite-time deletion; an explicit destroy
// always removes the staged variants, since no record is left to find them
// from afterwards.
func (m *Manager) Destroy(ctx context.Context, styles ...string) error {
	m.Clear(styles...)
	m.flushDeletes(ctx)
	return m.flushWrites(ctx)
}

// flushDeletes removes staged paths best-effort. A missing blob must never
// block the rest of the save cycle, so adapter-level failures are logged
// there and swallowed here.
func (m *Manager) flushDeletes(ctx context.Context) {
	if len(m.deletes) == 0 {
		return
	}

	m.dsk.Remove(ctx, m.deletes)
	m.deletes = nil
}

// flushWrites transforms and stores every staged style. The queue state
// moves to Working before the first style and to Done only after all of
// them, as a single terminal update. A failing style aborts the remaining
// ones and leaves the state at Working so the stuck item stays visible.
func (m *Manager) flushWrites(ctx context.Context) error {
	if len(m.writes) == 0 {
		return nil
	}

	if m.pending == nil {
		return fmt.Errorf("no pending file for staged writes on %q", m.Name)
	}

	m.updateQueueState(QueueWorking)

	for name, st := range m.writes {
		if err := m.writeStyle(ctx, name, st); err != nil {
			return err
		}
	}

	m.writes = nil
	m.pending = nil

	m.updateQueueState(QueueDone)

	return nil
}

func (m *Manager) writeStyle(ctx context.Context, name string, st style.Style) error {
	source := m.pending.TempPath

	if !st.IsPassthrough() && m.pending.IsImage() {
		variant, err := m.rsz.Resize(m.pending, st)
		if err != nil {
			return err
		}
		source = variant
	}

	if source != m.pending.TempPath {
		defer os.Remove(source)
	}

	target := m.Path(name)
	if target == "" {
		return nil
	}

	if err := m.dsk.Move(ctx, source, target, m.cfg.Visibility); err != nil {
		return err
	}

	zap.L().Debug("Stored attachment variant",
		zap.String("attachment", m.Name),
		zap.String("style", name),
		zap.String("path", target))

	return nil
}

// Reprocess regenerates every style variant from the stored original (or,
// when the original is unreadable, from the style's own current file)
// without touching the file name or queue metadata. Styles with no
// readable source at all are skipped. It needs a locally addressable disk
// to read existing variants back.
func (m *Manager) Reprocess(ctx context.Context) error {
	if m.Filename() == "" {
		return nil
	}

	loc, ok := m.dsk.(disk.Locator)
	if !ok {
		zap.L().Warn("Reprocess skipped: disk is not locally addressable",
			zap.String("attachment", m.Name))
		return nil
	}

	original := loc.Abs(m.Path("original"))

	for name, st := range m.cfg.Styles {
		target := m.Path(name)
		if target == "" {
			continue
		}

		source := original
		if _, err := os.Stat(source); err != nil {
			source = loc.Abs(target)
		}

		uf, err := m.files.Make(source)
		if err != nil {
			zap.L().Warn("Reprocess source unreadable, style skipped",
				zap.String("attachment", m.Name),
				zap.String("style", name),
				zap.Error(err))
			continue
		}

		variant := uf.TempPath
		if !st.IsPassthrough() && uf.IsImage() {
			variant, err = m.rsz.Resize(uf, st)
			if err != nil {
				return err
			}
			defer os.Remove(variant)
		}

		// A pass-through style can resolve to the blob it is about to
		// replace; writing a file onto itself would truncate it.
		if sameFile(variant, loc.Abs(target)) {
			continue
		}

		if err := m.dsk.Move(ctx, variant, target, m.cfg.Visibility); err != nil {
			return err
		}
	}

	return nil
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}

	bi, err := os.Stat(b)
	if err != nil {
		return false
	}

	return os.SameFile(ai, bi)
}

// ProcessQueue is the synchronous unit of work a queue worker performs:
// bind the record, resolve the staged upload (an explicit path wins over
// the persisted queued_file), run the immediate path, flush, persist the
// record, and optionally clean up the local queue file and its directory.
// A failed flush marks the attachment Failed so workers leave a legal,
// visible state behind.
func (m *Manager) ProcessQueue(ctx context.Context, rec record.Record, path string, cleanup bool) error {
	m.SetRecord(rec)

	if path == "" {
		path = m.QueuedFilePath()
	}

	if err := m.stageFile(path); err != nil {
		m.updateQueueState(QueueFailed)
		return err
	}

	if err := m.CommitSave(ctx); err != nil {
		m.updateQueueState(QueueFailed)
		return err
	}

	if err := rec.Persist(); err != nil {
		return fmt.Errorf("failed to persist record after queue processing, %w", err)
	}

	if cleanup {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("Failed to remove queued file", zap.String("path", path), zap.Error(err))
		}
		// Only succeeds when the staging directory is empty, which is
		// exactly when it should go.
		os.Remove(filepath.Dir(path))
	}

	return nil
}

// URL returns the display URL for a style. Queued attachments resolve to
// the waiting/failed/loading placeholders, stored files to their prefixed
// storage path, and empty slots to the default URL. It never fails;
// missing templates yield "".
func (m *Manager) URL(styleName string) string {
	if m.IsQueued() {
		return m.queueURL(styleName)
	}

	if m.Filename() != "" {
		if p := m.Path(styleName); p != "" {
			return m.cfg.PrefixURL + p
		}
	}

	return m.defaultURL(styleName)
}

// Path returns the interpolated storage path for a style, or "" when no
// file is present. Paths derive from the template alone, never from write
// side effects, so writes, reads and deletes always agree.
func (m *Manager) Path(styleName string) string {
	if m.Filename() == "" {
		return ""
	}

	return m.Interpolator().Interpolate(m.cfg.URL, styleName)
}

// URLs returns the display URL of every configured style. With skipEmpty,
// an attachment without media returns nil; with includeOriginal false the
// default style is left out.
func (m *Manager) URLs(skipEmpty, includeOriginal bool) map[string]string {
	if skipEmpty && !m.HasMedia() {
		return nil
	}

	urls := make(map[string]string, len(m.cfg.Styles))
	for name := range m.cfg.Styles {
		if !includeOriginal && name == m.cfg.DefaultStyle {
			continue
		}
		urls[name] = m.URL(name)
	}

	return urls
}

// HasMedia reports whether a processed file is actually present: a stored
// file name, a computable path, and no in-flight queue work.
func (m *Manager) HasMedia() bool {
	return m.Filename() != "" && m.Path("") != "" && !m.IsQueued()
}

func (m *Manager) defaultURL(styleName string) string {
	if m.cfg.DefaultURL == "" {
		return ""
	}

	u := m.Interpolator().Interpolate(m.cfg.DefaultURL, styleName)
	if hasHost(u) {
		return u
	}

	return m.cfg.PrefixURL + u
}

// write sets one persisted attachment field, honoring the record's
// allow-set: the filename field is always writable, queue fields are
// written only when queueing is enabled, everything else must be in the
// allow-set.
func (m *Manager) write(prop string, value any) {
	if m.rec == nil {
		return
	}

	field := m.Name + "_" + prop

	switch {
	case prop == "file_name":
		m.rec.SetField(field, value)
	case strings.HasPrefix(prop, "queue"):
		if m.IsQueueable() {
			m.rec.SetField(field, value)
		}
	default:
		if record.Writable(m.rec, field) {
			m.rec.SetField(field, value)
		}
	}
}

// attribute reads one persisted attachment field. Legacy aliases map onto
// the physical names so callers can ask for "filename" or "size".
func (m *Manager) attribute(key string) any {
	if m.rec == nil {
		return nil
	}

	key = strings.TrimPrefix(key, "_")

	switch key {
	case "size":
		key = "file_size"
	case "filename", "original_filename":
		key = "file_name"
	}

	return m.rec.GetField(m.Name + "_" + key)
}

func (m *Manager) attrString(key string) string {
	v := m.attribute(key)
	if v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

func (m *Manager) attrInt(key string) int {
	switch v := m.attribute(key).(type) {
	case nil:
		return 0
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}

	return 0
}

func hasHost(u string) bool {
	parsed, err := url.Parse(u)
	return err == nil && parsed.Host != ""
}
