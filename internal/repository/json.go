package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	Data   []byte    `json:"data"`
	Expiry time.Time `json:"expiry"`
}

type Data struct {
	Sessions map[string]entry `json:"sessions"`
}

// JSON is an scs.Store backed by a single json file. The file is rewritten on
// every commit and delete, and once more when the service stops.
type JSON struct {
	path string
	log  *zap.Logger

	mu   sync.Mutex
	data *Data
}

func NewJSON(path string, log *zap.Logger) *JSON {
	r := &JSON{
		path: path,
		log:  log,
		data: &Data{Sessions: map[string]entry{}},
	}

	err := r.readfile()
	if err != nil && !os.IsNotExist(err) {
		// only log, data will be empty and will overwrite on the next commit
		r.log.Warn("failed reading json session file", zap.Error(err))
	}
	if r.data.Sessions == nil {
		r.data.Sessions = map[string]entry{}
	}

	return r
}

func (r *JSON) stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writefile()
}

func (r *JSON) readfile() error {
	finfo, err := os.Stat(r.path)
	if err != nil {
		return err
	}

	if finfo.IsDir() {
		return errTableFileIsDir
	}

	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(&r.data)
}

// writefile must be called with mu held.
func (r *JSON) writefile() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return err
	}

	now := time.Now()
	for token, e := range r.data.Sessions {
		if !now.Before(e.Expiry) {
			delete(r.data.Sessions, token)
		}
	}

	b, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func (r *JSON) Find(token string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.data.Sessions[token]
	if !ok || !time.Now().Before(e.Expiry) {
		return nil, false, nil
	}

	return e.Data, true, nil
}

func (r *JSON) Commit(token string, b []byte, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data.Sessions[token] = entry{Data: b, Expiry: expiry}
	return r.writefile()
}

func (r *JSON) Delete(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data.Sessions[token]; !ok {
		return nil
	}
	delete(r.data.Sessions, token)
	return r.writefile()
}
