package file

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"mediakit/util"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const (
	fetchTimeout = 30 * time.Second
	userAgent    = "mediakit/1.0 (+https://github.com/mediakit)"
)

// Base64Upload is a raw base64 payload plus its client supplied name,
// usually arriving through an API request body.
type Base64Upload struct {
	Name string
	Data string
}

// Manager builds canonical UploadedFile handles out of the supported input
// shapes.
type Manager struct {
	client *http.Client
}

func NewManager() *Manager {
	return &Manager{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Make normalizes any supported input into an UploadedFile:
//
//   - *multipart.FileHeader: a form upload
//   - Base64Upload: decoded into a fresh temp file
//   - map[string]string: the tmp_path/name/mime form
//   - string: a remote URL when it has a scheme, a local path otherwise
//   - *UploadedFile: passed through untouched
//
// Every path validates the guessed extension against the banned set.
func (m *Manager) Make(input any) (*UploadedFile, error) {
	switch v := input.(type) {
	case *UploadedFile:
		return v, nil
	case *multipart.FileHeader:
		return m.fromMultipart(v)
	case Base64Upload:
		return m.fromBase64(v)
	case map[string]string:
		return m.fromMap(v)
	case string:
		if u, err := url.Parse(v); err == nil && u.Scheme != "" && u.Host != "" {
			return m.fromURL(v)
		}
		return m.fromPath(v)
	}

	return nil, fmt.Errorf("%w: unsupported input type %T", ErrFile, input)
}

func (m *Manager) fromMultipart(fh *multipart.FileHeader) (*UploadedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open multipart upload, %v", ErrFile, err)
	}
	defer src.Close()

	name := SanitizeName(fh.Filename)

	dst, err := tempFile(name)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("%w: failed to spool multipart upload, %v", ErrFile, err)
	}

	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		if mt, err := mimetype.DetectFile(dst.Name()); err == nil {
			mime = mt.String()
		}
	}

	return m.finish(&UploadedFile{
		TempPath:     dst.Name(),
		OriginalName: name,
		MimeType:     mime,
		Size:         size,
	})
}

func (m *Manager) fromBase64(b Base64Upload) (*UploadedFile, error) {
	raw, err := base64.StdEncoding.DecodeString(b.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 payload, %v", ErrFile, err)
	}

	name := SanitizeName(b.Name)

	dst, err := tempFile(name)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err := dst.Write(raw); err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("%w: failed to write temp file, %v", ErrFile, err)
	}

	return m.finish(&UploadedFile{
		TempPath:     dst.Name(),
		OriginalName: name,
		MimeType:     mimetype.Detect(raw).String(),
		Size:         int64(len(raw)),
	})
}

func (m *Manager) fromMap(v map[string]string) (*UploadedFile, error) {
	f, err := m.fromPath(v["tmp_path"])
	if err != nil {
		return nil, err
	}

	if name := v["name"]; name != "" {
		f.OriginalName = SanitizeName(name)
	}
	if mime := v["mime"]; mime != "" {
		f.MimeType = mime
	}

	return m.finish(f)
}

// fromURL fetches a remote file. Redirects are followed by the default
// client policy and the MIME type comes from content sniffing, never from
// the response headers.
func (m *Manager) fromURL(rawURL string) (*UploadedFile, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q, %v", ErrFile, rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %q, %v", ErrFile, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: fetching %q returned %s", ErrFile, rawURL, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body, %v", ErrFile, err)
	}

	mt := mimetype.Detect(raw)

	parsed, _ := url.Parse(rawURL)
	name := SanitizeName(path.Base(parsed.Path))
	if name == "" || name == "." {
		name = "download"
	}

	// Remote URLs frequently carry no extension at all, so derive one from
	// the sniffed type to keep storage paths and style encoding working.
	if filepath.Ext(name) == "" {
		name += mt.Extension()
	}

	zap.L().Debug("Fetched remote upload",
		zap.String("url", rawURL),
		zap.String("mime", mt.String()),
		zap.Int("size", len(raw)))

	dst, err := tempFile(name)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err := dst.Write(raw); err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("%w: failed to write temp file, %v", ErrFile, err)
	}

	return m.finish(&UploadedFile{
		TempPath:     dst.Name(),
		OriginalName: name,
		MimeType:     mt.String(),
		Size:         int64(len(raw)),
	})
}

func (m *Manager) fromPath(p string) (*UploadedFile, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable source %q, %v", ErrFile, p, err)
	}

	mime := ""
	if mt, err := mimetype.DetectFile(p); err == nil {
		mime = mt.String()
	}

	return m.finish(&UploadedFile{
		TempPath:     p,
		OriginalName: SanitizeName(filepath.Base(p)),
		MimeType:     mime,
		Size:         info.Size(),
	})
}

// finish applies the extension deny list shared by every input shape.
func (m *Manager) finish(f *UploadedFile) (*UploadedFile, error) {
	if extensionBanned(f.Extension()) {
		return nil, fmt.Errorf("%w: extension %q is not allowed", ErrFile, f.Extension())
	}

	return f, nil
}

func tempFile(name string) (*os.File, error) {
	dst, err := os.Create(filepath.Join(os.TempDir(), util.RandStr(8)+"-"+name))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp file, %v", ErrFile, err)
	}

	return dst, nil
}
