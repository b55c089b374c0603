package promptledger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xraph/promptledger/address"
)

// ProgramConfig is the on-disk program configuration.
//
//	solana:
//	  program:
//	    id: 8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh
type ProgramConfig struct {
	Solana struct {
		Program struct {
			ID string `yaml:"id"`
		} `yaml:"program"`
	} `yaml:"solana"`
}

// ProgramID parses and validates the configured program identity.
func (c *ProgramConfig) ProgramID() (address.PublicKey, error) {
	if c.Solana.Program.ID == "" {
		return address.Zero, ErrMissingProgramID
	}
	pid, err := address.Parse(c.Solana.Program.ID)
	if err != nil {
		return address.Zero, ValidationError{Field: "solana.program.id", Message: err.Error()}
	}
	if pid.IsZero() {
		return address.Zero, ValidationError{Field: "solana.program.id", Message: "must not be the system program"}
	}
	return pid, nil
}

// ParseProgramConfig decodes a YAML program configuration.
func ParseProgramConfig(data []byte) (*ProgramConfig, error) {
	var cfg ProgramConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("promptledger: parse program config: %w", err)
	}
	if _, err := cfg.ProgramID(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadProgramConfig reads and validates the program configuration at path.
func LoadProgramConfig(path string) (*ProgramConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("promptledger: read program config: %w", err)
	}
	return ParseProgramConfig(data)
}
