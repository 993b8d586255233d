package rtclient

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Prefs persists client preferences to a small JSON file so they survive
// restarts.
type Prefs struct {
	mu   sync.Mutex
	path string
	data prefsData
}

type prefsData struct {
	HideOnlineStatus bool `json:"hide_online_status"`
}

// LoadPrefs reads preferences from path, starting fresh if the file does not
// exist yet.
func LoadPrefs(path string) (*Prefs, error) {
	p := &Prefs{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		return nil, err
	}
	return p, nil
}

// HideOnlineStatus reports the stored visibility preference
func (p *Prefs) HideOnlineStatus() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.HideOnlineStatus
}

// SetHideOnlineStatus updates the preference and writes it through to disk
func (p *Prefs) SetHideOnlineStatus(hidden bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.HideOnlineStatus = hidden
	return p.save()
}

func (p *Prefs) save() error {
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(p.path, raw, 0o644)
}
