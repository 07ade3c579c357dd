// Package jsonio reads and writes the JSON files that make up a project
// directory tree. Writes report what they did (write, overwrite, skipping,
// remove) through a Reporter so command output matches what happened on disk.
package jsonio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/papapumpkin/casmproj/internal/errkind"
)

// ErrTempExists indicates a <path>.tmp file was found before a safe write,
// which means another writer is active or a previous write was interrupted.
var ErrTempExists = errors.New("temp file already exists")

var errTrailingData = errors.New("unexpected data after top-level JSON value")

// Reporter receives notifications about file operations.
type Reporter interface {
	FileWrite(path string)
	FileOverwrite(path string)
	FileSkip(path string)
	FileRemove(path string)
}

// Options controls Dump and SafeDump.
type Options struct {
	Force    bool     // overwrite an existing file
	Quiet    bool     // suppress reporting
	Reporter Reporter // may be nil
}

func (o Options) report(fn func(Reporter)) {
	if o.Quiet || o.Reporter == nil {
		return
	}
	fn(o.Reporter)
}

// PrettyJSON encodes v with two-space indentation and a trailing newline.
// Map keys are sorted, so equal values always produce identical bytes.
func PrettyJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PrintPath returns path relative to the working directory when it lies
// below it, and the absolute path otherwise.
func PrintPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return abs
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}

func isGzip(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

func decode(r io.Reader, gz bool, v any) error {
	if gz {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func readFile(op, path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := decode(f, isGzip(path), v); err != nil {
		return errkind.New(errkind.MalformedFile, op, path, fmt.Errorf("decoding JSON: %w", err))
	}
	return nil
}

// ReadRequired decodes the JSON file at path into v. A missing file is a
// MissingRequiredFile error; files ending in ".gz" are gunzipped first.
func ReadRequired(path string, v any) error {
	err := readFile("jsonio.read_required", path, v)
	if os.IsNotExist(err) {
		return errkind.New(errkind.MissingRequiredFile, "jsonio.read_required", PrintPath(path),
			errors.New("required file does not exist"))
	}
	return err
}

// ReadOptional decodes the JSON file at path into v if it exists. It returns
// false, nil when the file is absent and leaves v untouched.
func ReadOptional(path string, v any) (bool, error) {
	err := readFile("jsonio.read_optional", path, v)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReadCascading decodes the first existing file of paths into v and returns
// the path that was read.
func ReadCascading(paths []string, v any) (string, error) {
	for _, p := range paths {
		found, err := ReadOptional(p, v)
		if err != nil {
			return "", err
		}
		if found {
			return p, nil
		}
	}
	checked := make([]string, len(paths))
	for i, p := range paths {
		checked[i] = PrintPath(p)
	}
	return "", errkind.New(errkind.MissingRequiredFile, "jsonio.read_cascading", "",
		fmt.Errorf("required file not found; checked: %s", strings.Join(checked, ", ")))
}

// Dump writes v to path as pretty JSON. An existing file is only replaced
// when opts.Force is set; otherwise it is reported as skipped.
func Dump(v any, path string, opts Options) error {
	return dump(v, path, opts, writePlain)
}

// SafeDump is Dump, but the data is written to <path>.tmp first, the
// original is removed, and the temp file is renamed into place. If the temp
// file already exists the write fails with ConcurrentWriteConflict. This
// does not protect against concurrent writers that race on the check.
func SafeDump(v any, path string, opts Options) error {
	return dump(v, path, opts, writeSafe)
}

func dump(v any, path string, opts Options, write func(string, []byte) error) error {
	data, err := PrettyJSON(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if isGzip(path) {
		if data, err = gzipBytes(data); err != nil {
			return fmt.Errorf("compressing %s: %w", filepath.Base(path), err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		if !opts.Force {
			opts.report(func(r Reporter) { r.FileSkip(PrintPath(path)) })
			return nil
		}
		opts.report(func(r Reporter) { r.FileOverwrite(PrintPath(path)) })
	} else {
		opts.report(func(r Reporter) { r.FileWrite(PrintPath(path)) })
	}
	return write(path, data)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePlain(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeSafe(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if _, err := os.Stat(tmp); err == nil {
		return errkind.New(errkind.ConcurrentWriteConflict, "jsonio.safe_dump", tmp, ErrTempExists)
	}
	// O_EXCL narrows the window between the check above and the create.
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return errkind.New(errkind.ConcurrentWriteConflict, "jsonio.safe_dump", tmp, ErrTempExists)
		}
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		os.Remove(tmp)
		return fmt.Errorf("removing original %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// RemoveIfExists deletes the file at path if present. It reports true when a
// file was removed.
func RemoveIfExists(path string, opts Options) (bool, error) {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("removing %s: %w", filepath.Base(path), err)
	}
	opts.report(func(r Reporter) { r.FileRemove(PrintPath(path)) })
	return true, nil
}

// Exists reports whether a file or directory exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadMeta reads an optional meta.json file. A missing file yields an empty
// map; a value that is not a JSON object is an InvalidMetaType error.
func ReadMeta(path string) (map[string]any, error) {
	var v any
	found, err := ReadOptional(path, &v)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errkind.New(errkind.InvalidMetaType, "jsonio.read_meta", PrintPath(path),
			fmt.Errorf("meta must be a JSON object, got %T", v))
	}
	return m, nil
}
