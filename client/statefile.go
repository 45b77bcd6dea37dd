package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mat1312/psicologo/internal/model"
)

const (
	envStateHome  = "PSICOLOGO_STATE_HOME" // override for tests
	stateDirName  = ".psicologo"           // default under $HOME
	identityFname = "identity.json"
)

// stateDir returns the directory where durable client state lives
// (~/.psicologo). It creates the directory with 0700 permissions if absent.
func stateDir() (string, error) {
	if custom := os.Getenv(envStateHome); custom != "" {
		if err := os.MkdirAll(custom, 0o700); err != nil {
			return "", err
		}
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	dir := filepath.Join(home, stateDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func identityPath() (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, identityFname), nil
}

// cachedIdentity is the durable shape restored optimistically on startup
// before re-validation.
type cachedIdentity struct {
	ActorID string         `json:"actorId"`
	Profile *model.Profile `json:"profile,omitempty"`
}

func saveIdentity(ci *cachedIdentity) error {
	path, err := identityPath()
	if err != nil {
		return err
	}
	data, err := json.Marshal(ci)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func loadIdentity() (*cachedIdentity, error) {
	path, err := identityPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ci cachedIdentity
	if err := json.Unmarshal(data, &ci); err != nil {
		return nil, err
	}
	return &ci, nil
}

func clearIdentity() error {
	path, err := identityPath()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
