package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for Scrubward.
type FileConfig struct {
	PolicyDir   *string `yaml:"policy_dir"`
	ReceiptsDir *string `yaml:"receipts_dir"`
	AuditDir    *string `yaml:"audit_dir"`

	FusionMode    *string  `yaml:"fusion_mode"`
	LabelPriority []string `yaml:"label_priority"`

	Include     *string `yaml:"include"`
	Exclude     *string `yaml:"exclude"`
	MaxBytes    *int64  `yaml:"max_bytes"`
	Receiptless *bool   `yaml:"receiptless"`

	ExternalModel *ExternalModelConfig `yaml:"external_model"`
}

// ExternalModelConfig configures the optional recognition model. Disabled
// by default; behavior with it off is identical to a rule-only baseline.
type ExternalModelConfig struct {
	Enabled  *bool   `yaml:"enabled"`
	Name     *string `yaml:"name"`
	Endpoint *string `yaml:"endpoint"`
	Timeout  *string `yaml:"timeout"` // Go duration string
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root. It
// supports .scrubward.yml/.yaml and scrubward.yml/.yaml, dotfiles first.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".scrubward.yml", ".scrubward.yaml", "scrubward.yml", "scrubward.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// IsModelEnabled reports whether the external model is switched on.
func (fc FileConfig) IsModelEnabled() bool {
	return fc.ExternalModel != nil && fc.ExternalModel.Enabled != nil && *fc.ExternalModel.Enabled
}

// Secrets holds the process-scoped secret material. Constructed once at
// startup and passed by reference; never logged, never embedded in output.
type Secrets struct {
	Salt []byte // identifier salt
	Key  []byte // 32-byte receipt encryption key
}

const (
	saltEnv = "SCRUBWARD_SALT"
	keyEnv  = "SCRUBWARD_KEY" // base64, 32 bytes decoded
)

// LoadSecrets reads the salt and receipt key from the environment, honoring
// a .env file when present. Missing values stay nil so each consumer can
// fail with its own precise error.
func LoadSecrets() Secrets {
	_ = godotenv.Load()
	var s Secrets
	if v := os.Getenv(saltEnv); v != "" {
		s.Salt = []byte(v)
	}
	if v := os.Getenv(keyEnv); v != "" {
		if key, err := base64.StdEncoding.DecodeString(v); err == nil {
			s.Key = key
		}
	}
	return s
}

// DefaultDataDir resolves the base data directory: $SCRUBWARD_DATA or
// ./data.
func DefaultDataDir() string {
	if v := os.Getenv("SCRUBWARD_DATA"); v != "" {
		return v
	}
	return "data"
}

// ReceiptsDirOr resolves the receipts directory from config or the default.
func (fc FileConfig) ReceiptsDirOr(base string) string {
	if fc.ReceiptsDir != nil && *fc.ReceiptsDir != "" {
		return *fc.ReceiptsDir
	}
	return filepath.Join(base, "receipts")
}

// AuditDirOr resolves the audit directory from config or the default.
func (fc FileConfig) AuditDirOr(base string) string {
	if fc.AuditDir != nil && *fc.AuditDir != "" {
		return *fc.AuditDir
	}
	return filepath.Join(base, "audit")
}

// ModelTimeoutString returns the configured external model timeout string,
// empty when unset.
func (fc FileConfig) ModelTimeoutString() string {
	if fc.ExternalModel == nil || fc.ExternalModel.Timeout == nil {
		return ""
	}
	return *fc.ExternalModel.Timeout
}

// Validate rejects obviously inconsistent configurations early.
func (fc FileConfig) Validate() error {
	if fc.IsModelEnabled() {
		if fc.ExternalModel.Endpoint == nil || *fc.ExternalModel.Endpoint == "" {
			return fmt.Errorf("external_model.enabled requires external_model.endpoint")
		}
	}
	return nil
}
