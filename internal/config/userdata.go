package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// UserData holds user-specific settings that are stored locally
type UserData struct {
	// LastLocation is the query string of the last viewed folder, e.g. "path=photos%2F"
	LastLocation string    `json:"last_location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	path string
}

// LoadUserData loads user data from ~/.r2drive/user.data
func LoadUserData() (*UserData, error) {
	userDataPath, err := getUserDataPath()
	if err != nil {
		return createDefaultUserData(""), nil
	}
	return LoadUserDataFrom(userDataPath)
}

// LoadUserDataFrom loads user data from path, falling back to defaults
// when the file is missing or invalid.
func LoadUserDataFrom(path string) (*UserData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return createDefaultUserData(path), nil
	}

	var userData UserData
	if err := json.Unmarshal(data, &userData); err != nil {
		// Invalid JSON, return default
		return createDefaultUserData(path), nil
	}
	userData.path = path

	return &userData, nil
}

// SaveUserData saves user data to its file
func (ud *UserData) SaveUserData() error {
	if ud.path == "" {
		path, err := getUserDataPath()
		if err != nil {
			return err
		}
		ud.path = path
	}

	ud.UpdatedAt = time.Now()
	if ud.CreatedAt.IsZero() {
		ud.CreatedAt = ud.UpdatedAt
	}

	data, err := json.MarshalIndent(ud, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(ud.path, data, 0644)
}

// Replace records folderID as the current location
func (ud *UserData) Replace(folderID string) error {
	q := url.Values{}
	q.Set("path", folderID)
	ud.LastLocation = q.Encode()
	return ud.SaveUserData()
}

// Restore returns the folder id of the last location, if any
func (ud *UserData) Restore() (string, bool) {
	q, err := url.ParseQuery(strings.TrimPrefix(ud.LastLocation, "?"))
	if err != nil || !q.Has("path") {
		return "", false
	}
	return q.Get("path"), true
}

// createDefaultUserData creates a new UserData with default values
func createDefaultUserData(path string) *UserData {
	now := time.Now()
	return &UserData{
		CreatedAt: now,
		UpdatedAt: now,
		path:      path,
	}
}

// getUserDataPath returns the path to the user.data file
func getUserDataPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	// Use the same directory as config file
	configDir := filepath.Join(homeDir, ".r2drive")

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}

	return filepath.Join(configDir, "user.data"), nil
}
