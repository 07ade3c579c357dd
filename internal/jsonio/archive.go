package jsonio

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/papapumpkin/casmproj/internal/errkind"
)

// ReadContents decodes relpath below parentDir into v. When the file is not
// present on disk but a sibling archive <parentDir>.tgz exists, the member
// <base(parentDir)>/<relpath> is read from the archive instead. Members whose
// name ends in ".gz" are gunzipped. It returns false, nil if neither source
// has the file.
func ReadContents(parentDir, relpath string, v any) (bool, error) {
	direct := filepath.Join(parentDir, relpath)
	if Exists(direct) {
		if err := readFile("jsonio.read_contents", direct, v); err != nil {
			return false, err
		}
		return true, nil
	}

	tgz := filepath.Join(filepath.Dir(parentDir), filepath.Base(parentDir)+".tgz")
	if !Exists(tgz) {
		return false, nil
	}
	member := path.Join(filepath.Base(parentDir), filepath.ToSlash(relpath))
	return readArchiveMember(tgz, member, v)
}

func readArchiveMember(tgz, member string, v any) (bool, error) {
	f, err := os.Open(tgz)
	if err != nil {
		return false, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return false, errkind.New(errkind.MalformedFile, "jsonio.read_contents", tgz, err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, errkind.New(errkind.MalformedFile, "jsonio.read_contents", tgz, err)
		}
		if path.Clean(hdr.Name) != member {
			continue
		}
		if err := decode(tr, isGzip(member), v); err != nil {
			return false, errkind.New(errkind.MalformedFile, "jsonio.read_contents", tgz+":"+member,
				fmt.Errorf("decoding JSON: %w", err))
		}
		return true, nil
	}
}

// Get walks decoded JSON (nested map[string]any and []any) along keys and
// returns the value found, or def if a map key is missing. A list index that
// is negative or out of range is an error, as is descending into a scalar.
func Get(data any, keys []any, def any) (any, error) {
	cur := data
	for i, k := range keys {
		switch node := cur.(type) {
		case map[string]any:
			key := fmt.Sprint(k)
			next, ok := node[key]
			if !ok {
				return def, nil
			}
			cur = next
		case []any:
			idx, ok := k.(int)
			if !ok {
				return nil, fmt.Errorf("jsonio.get: key %d: list index must be an int, got %T", i, k)
			}
			if idx < 0 {
				return nil, fmt.Errorf("jsonio.get: key %d: index < 0", i)
			}
			if idx >= len(node) {
				return nil, fmt.Errorf("jsonio.get: key %d: index %d >= len %d", i, idx, len(node))
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("jsonio.get: key %d: not a dict or list", i)
		}
	}
	return cur, nil
}
