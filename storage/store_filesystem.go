package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

/* Store objects on local filesystem. */
type StoreFilesystem struct {
	root string
}

// NewEmptyLocalStore returns a FileStorage with no data.
// Intended for testing, as aborted tests may otherwise leave files on disk.
func NewEmptyLocalStore(root string) (FileStorage, error) {
	err := os.RemoveAll(root)
	if err != nil {
		return nil, err
	}
	return NewLocalStore(root)
}

func NewLocalStore(root string) (FileStorage, error) {
	err := os.MkdirAll(root, 0755)
	return &StoreFilesystem{root}, err
}

func (s *StoreFilesystem) GetRootPath() string {
	return s.root
}

// objectPath joins label and id, refusing ids that would resolve outside the label folder.
func (s *StoreFilesystem) objectPath(label, id string) (string, error) {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("invalid object id %q", id)})
	}
	return filepath.Join(s.root, label, id), nil
}

func (s *StoreFilesystem) Put(ctx context.Context, label, id string, data []byte) error {
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "put", err)
	}()
	path, err := s.objectPath(label, id)
	if err != nil {
		return err
	}
	dirname := filepath.Dir(path)
	err = os.MkdirAll(dirname, 0755)
	if err != nil {
		return fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
	}
	// write then rename so readers never see a partial object
	tmp, err := os.CreateTemp(dirname, ".put-*")
	if err != nil {
		return fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Rename(tmp.Name(), path)
	return err
}

func (s *StoreFilesystem) Fetch(ctx context.Context, label, id string) ([]byte, error) {
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "fetch", err)
	}()
	path, err := s.objectPath(label, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w", &NotFoundError{})
		}
		return nil, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
	}
	return data, nil
}

func (s *StoreFilesystem) Exists(ctx context.Context, label, id string) (bool, error) {
	path, err := s.objectPath(label, id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err == nil {
		return true, nil
	} else if os.IsNotExist(err) {
		return false, nil
	} else {
		return false, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
	}
}

func (s *StoreFilesystem) List(ctx context.Context, label string) ([]string, error) {
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "list", err)
	}()
	entries, err := os.ReadDir(filepath.Join(s.root, label))
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
	}
	ids := []string{}
	for _, entry := range entries {
		// skip directories and in-flight puts
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *StoreFilesystem) Delete(ctx context.Context, label, id string) (bool, error) {
	path, err := s.objectPath(label, id)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if err != nil {
		e := fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
		if os.IsNotExist(err) {
			e = fmt.Errorf("%w", &NotFoundError{})
		}
		return false, e
	}
	return true, nil
}
