package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/2x3systems/gokn/gokn"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

var textFileRE = regexp.MustCompile(`^gra(\d+)_(\d+)\.g6$`)

// graph6FileHeader optionally opens a nauty graph6 file.
const graph6FileHeader = ">>graph6<<"

// TextStore keeps one file per family in a root directory.
//
// File "gra<g>_<d>.g6" holds the decimal graph count on its first line followed by one graph6 string per line.
// Blank lines are ignored when reading.
type TextStore struct {
	root     string
	readOnly bool
}

func OpenTextStore(opts gokn.StoreOpts) (*TextStore, error) {
	if opts.Root == "" {
		return nil, errors.New("text store requires a root directory")
	}
	if opts.ReadOnly {
		if fi, err := os.Stat(opts.Root); err != nil {
			return nil, err
		} else if !fi.IsDir() {
			return nil, errors.Errorf("%q is not a directory", opts.Root)
		}
	} else if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, err
	}

	return &TextStore{
		root:     opts.Root,
		readOnly: opts.ReadOnly,
	}, nil
}

// PathFor returns the pathname of the file holding the family for key.
func (st *TextStore) PathFor(key gokn.ParamKey) string {
	return filepath.Join(st.root, fmt.Sprintf("gra%d_%d.g6", key.G, key.D))
}

func (st *TextStore) Has(key gokn.ParamKey) (bool, error) {
	_, err := os.Stat(st.PathFor(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (st *TextStore) Load(key gokn.ParamKey) (gokn.Family, error) {
	pathname := st.PathFor(key)
	file, err := os.Open(pathname)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(gokn.ErrFamilyNotFound, "%v (%s)", key, pathname)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	fam, err := ReadFamily(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", pathname)
	}
	return fam, nil
}

// ReadFamily reads the count-prefixed line format of a family file.
func ReadFamily(r io.Reader) (gokn.Family, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	count := -1
	var fam gokn.Family
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if count < 0 {
			n, err := strconv.Atoi(line)
			if err != nil || n < 0 {
				return nil, errors.Wrapf(gokn.ErrFamilyCount, "bad count line %q", line)
			}
			count = n
			fam = make(gokn.Family, 0, n)
			continue
		}
		fam = append(fam, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if count < 0 {
		return nil, errors.Wrap(gokn.ErrFamilyCount, "missing count line")
	}
	if count != len(fam) {
		return nil, errors.Wrapf(gokn.ErrFamilyCount, "declared %d, found %d", count, len(fam))
	}
	return fam, nil
}

// ReadFamilyNoHeader reads graph6 lines with no count line, as written by geng or labelg.
// Blank lines and the optional ">>graph6<<" file header are skipped; lines are kept in input order.
func ReadFamilyNoHeader(r io.Reader) (gokn.Family, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var fam gokn.Family
	for scanner.Scan() {
		line := strings.TrimPrefix(strings.TrimSpace(scanner.Text()), graph6FileHeader)
		if line != "" {
			fam = append(fam, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return fam, nil
}

// Save writes fam to a temp file in the root and renames it into place, so readers never see a partial family.
func (st *TextStore) Save(key gokn.ParamKey, fam gokn.Family) error {
	if st.readOnly {
		return gokn.ErrStoreReadOnly
	}

	tmp, err := os.CreateTemp(st.root, ".gra*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	fmt.Fprintf(w, "%d\n", len(fam))
	for _, g6 := range fam {
		w.WriteString(g6)
		w.WriteByte('\n')
	}
	if err = w.Flush(); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	pathname := st.PathFor(key)
	if err = os.Rename(tmpName, pathname); err != nil {
		return err
	}

	klog.V(1).Infof("saved %d graphs to %s", len(fam), pathname)
	return nil
}

func (st *TextStore) Keys() ([]gokn.ParamKey, error) {
	entries, err := os.ReadDir(st.root)
	if err != nil {
		return nil, err
	}

	var keys []gokn.ParamKey
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := textFileRE.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		g, _ := strconv.Atoi(match[1])
		d, _ := strconv.Atoi(match[2])
		keys = append(keys, gokn.ParamKey{G: g, D: d})
	}
	gokn.SortKeys(keys)
	return keys, nil
}

func (st *TextStore) Close() error {
	return nil
}
