// Package persist reads and writes the account and cart files.
//
// The layout follows the historical format: the account file holds the four
// fields one per line, the cart file holds one line of per-product quantities
// followed by one line with total cost and total items. A missing file is not
// an error; a malformed file is rejected in full so callers never apply a
// partial record.
package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mkrishnan-dev/watch-shop-server/internal/model"
)

const (
	accountFile = "account_data.txt"
	cartFile    = "cart_data.txt"
)

// ErrCorruptData marks a persisted file that failed validation.
var ErrCorruptData = errors.New("persisted data is corrupt")

// FileStore persists the account and cart under one directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// SaveAccount writes the account record. Fields must not contain newlines;
// the command parser guarantees that for user input.
func (f *FileStore) SaveAccount(a model.Account) error {
	content := a.Name + "\n" + a.Address + "\n" + a.PIN + "\n" + a.Mobile + "\n"
	if err := writeFileAtomic(filepath.Join(f.dir, accountFile), []byte(content)); err != nil {
		return fmt.Errorf("write %s: %w", accountFile, err)
	}
	return nil
}

// SaveCart writes the cart quantities and totals.
func (f *FileStore) SaveCart(st model.CartState) error {
	var b strings.Builder
	for _, q := range st.Quantities {
		fmt.Fprintf(&b, "%d ", q)
	}
	fmt.Fprintf(&b, "\n%d %d\n", st.TotalCost, st.TotalItems)
	if err := writeFileAtomic(filepath.Join(f.dir, cartFile), []byte(b.String())); err != nil {
		return fmt.Errorf("write %s: %w", cartFile, err)
	}
	return nil
}

// LoadAccount reads the account record. found is false when no file exists.
func (f *FileStore) LoadAccount() (_ model.Account, found bool, _ error) {
	b, err := os.ReadFile(filepath.Join(f.dir, accountFile))
	if errors.Is(err, os.ErrNotExist) {
		return model.Account{}, false, nil
	}
	if err != nil {
		return model.Account{}, false, fmt.Errorf("read %s: %w", accountFile, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	if len(lines) != 4 {
		return model.Account{}, false, fmt.Errorf("%w: account file has %d fields, want 4", ErrCorruptData, len(lines))
	}
	a := model.Account{Name: lines[0], Address: lines[1], PIN: lines[2], Mobile: lines[3]}
	if err := a.Validate(); err != nil {
		return model.Account{}, false, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	return a, true, nil
}

// LoadCart reads the cart record. products is the catalog size the quantity
// count must match. found is false when no file exists.
func (f *FileStore) LoadCart(products int) (_ model.CartState, found bool, _ error) {
	b, err := os.ReadFile(filepath.Join(f.dir, cartFile))
	if errors.Is(err, os.ErrNotExist) {
		return model.CartState{}, false, nil
	}
	if err != nil {
		return model.CartState{}, false, fmt.Errorf("read %s: %w", cartFile, err)
	}

	fields := strings.Fields(string(b))
	if len(fields) != products+2 {
		return model.CartState{}, false, fmt.Errorf("%w: cart file has %d fields, want %d", ErrCorruptData, len(fields), products+2)
	}
	nums := make([]int, len(fields))
	for i, s := range fields {
		n, err := strconv.Atoi(s)
		if err != nil {
			return model.CartState{}, false, fmt.Errorf("%w: field %q is not an integer", ErrCorruptData, s)
		}
		if n < 0 {
			return model.CartState{}, false, fmt.Errorf("%w: field %q is negative", ErrCorruptData, s)
		}
		nums[i] = n
	}
	return model.CartState{
		Quantities: nums[:products],
		TotalCost:  nums[products],
		TotalItems: nums[products+1],
	}, true, nil
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it into place, so a crashed save never leaves a torn file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
