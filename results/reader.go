package results

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/teranos/joulebench/errors"
)

// Defaults matching the measurement tool's output layout
const (
	DefaultDir     = "results"
	DefaultPattern = "energy_benchmark_*.json"
)

// Reader locates and parses result files in one directory
type Reader struct {
	dir     string
	pattern string
}

// NewReader creates a reader over dir for files matching pattern.
// Empty arguments fall back to the defaults.
func NewReader(dir, pattern string) *Reader {
	if dir == "" {
		dir = DefaultDir
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Reader{dir: dir, pattern: pattern}
}

// Dir returns the directory the reader scans
func (r *Reader) Dir() string { return r.dir }

// Pattern returns the glob file names are matched against
func (r *Reader) Pattern() string { return r.pattern }

// Matches reports whether name is a result file name this reader would pick up
func (r *Reader) Matches(name string) bool {
	ok, err := filepath.Match(r.pattern, filepath.Base(name))
	return err == nil && ok
}

// Path resolves a bare file name inside the results directory.
// Names that would escape the directory are rejected.
func (r *Reader) Path(name string) (string, error) {
	if name == "" {
		return "", errors.NewInvalidRequestError("file name is required")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", errors.WithHint(
			errors.NewInvalidRequestError("invalid file name %q", name),
			"pass a file name from the results directory, not a path")
	}
	return filepath.Join(r.dir, name), nil
}

type fileEntry struct {
	name    string
	modTime time.Time
}

// scan returns matching files newest first. Ties on mtime go to the
// lexically greatest name so the choice is stable.
func (r *Reader) scan() ([]fileEntry, error) {
	dirEntries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
			return nil, errors.NewNotFoundError("results directory %s does not exist", r.dir)
		}
		return nil, errors.Wrapf(err, "read results directory %s", r.dir)
	}

	var files []fileEntry
	for _, de := range dirEntries {
		if de.IsDir() || !r.Matches(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		files = append(files, fileEntry{name: de.Name(), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].name > files[j].name
	})
	return files, nil
}

// ResolveLatest returns the name of the most recently modified result file.
// An absent or empty directory is ErrNotFound.
func (r *Reader) ResolveLatest() (string, error) {
	files, err := r.scan()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.WithHintf(
			errors.NewNotFoundError("no result files matching %s in %s", r.pattern, r.dir),
			"run the benchmark first so it writes %s", filepath.Join(r.dir, r.pattern))
	}
	return files[0].name, nil
}

// List returns every result file name, newest first. An absent directory is empty.
func (r *Reader) List() ([]string, error) {
	files, err := r.scan()
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.name)
	}
	return names, nil
}

// Read parses the named result file. Entry shapes are not checked here;
// see Entry.Validate.
func (r *Reader) Read(name string) (*Document, error) {
	path, err := r.Path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("result file %s does not exist", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return doc, nil
}

// Describe parses the named file and summarizes its contents
func (r *Reader) Describe(name string) (FileSummary, error) {
	path, err := r.Path(name)
	if err != nil {
		return FileSummary{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileSummary{}, errors.NewNotFoundError("result file %s does not exist", path)
		}
		return FileSummary{}, errors.Wrapf(err, "stat %s", path)
	}

	doc, err := r.Read(name)
	if err != nil {
		return FileSummary{}, err
	}
	return Summarize(name, info.ModTime(), doc), nil
}

// Decode parses one result document. Malformed JSON is ErrParse; well-formed
// JSON whose values have the wrong type is ErrSchema.
func Decode(src io.Reader) (*Document, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "read document")
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errors.Mark(errors.Wrap(err, "decode document"), errors.ErrSchema)
		}
		return nil, errors.WrapParse(err, "decode document")
	}
	return &doc, nil
}
