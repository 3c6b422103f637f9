package json

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/danibene/puncc/internal/storage"
)

const (
	filename = "%d.runs.log"
)

// Logger appends run records to stamped log files, one json line per record.
type Logger struct {
	path string
}

func NewLogger(folder string) *Logger {
	return &Logger{path: folder}
}

func (l *Logger) filePath(k storage.K) string {
	return path.Join(storage.DefaultDir, storage.RegistryDir, l.path, k.Model, k.Label)
}

func (l *Logger) Store(k storage.Key, stamp int64, value interface{}) error {

	filePath := l.filePath(storage.K{
		Model: k.Model,
		Label: k.Label,
	})

	// check if filepath exists
	info, err := os.Stat(filePath)
	if err != nil {
		err := os.MkdirAll(filePath, os.ModePerm)
		if err != nil {
			return fmt.Errorf("could not make dir: %s: %w", filePath, err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("path given is not a dir: %s", filePath)
	}

	// keep each record on one line so the log can be read back line by line
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode value '%+v': %w", value, err)
	}
	f, err := os.OpenFile(path.Join(filePath, fmt.Sprintf(filename, stamp)), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}

	defer f.Close()

	if _, err = f.Write(append(b, []byte("\n")...)); err != nil {
		return fmt.Errorf("could not write log file for '%+v': %w", k, err)
	}
	return nil
}

// Registry is a run registry storing one json line per calibration run.
type Registry struct {
	stamp  int64
	logger *Logger
	root   string
}

func NewRunRegistry(path string) *Registry {
	return &Registry{
		stamp:  time.Now().Unix(),
		logger: NewLogger(path),
		root:   path,
	}
}

// RunRegistry creates a new registry generator
func RunRegistry(parent string) storage.EventRegistry {
	return func(p string) (storage.Registry, error) {
		if p == "" {
			return NewRunRegistry(parent), nil
		}
		return NewRunRegistry(path.Join(parent, p)), nil
	}
}

func (e *Registry) WithStamp(s int64) *Registry {
	e.stamp = s
	return e
}

func (e *Registry) Root() string {
	return e.root
}

func (e *Registry) Add(key storage.K, value interface{}) error {
	k := storage.Key{
		Model: key.Model,
		Label: key.Label,
	}
	return e.logger.Store(k, e.stamp, value)
}

// GetAll returns all records logged under the given key, in insertion order.
func (e *Registry) GetAll(key storage.K) ([][]byte, error) {

	filePath := e.logger.filePath(key)

	records := make([][]byte, 0)
	err := filepath.Walk(filePath, func(p string, info os.FileInfo, err error) error {
		if info != nil && !info.IsDir() {
			b, err := ioutil.ReadFile(p)
			if err != nil {
				return fmt.Errorf("could not read file '%s': %w", p, err)
			}
			for _, line := range strings.Split(string(b), "\n") {
				if line == "" {
					continue
				}
				records = append(records, []byte(line))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not get runs: %w", err)
	}

	return records, nil
}
