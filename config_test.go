package promptledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseProgramConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name: "valid",
			yaml: "solana:\n  program:\n    id: 8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh\n",
		},
		{
			name:    "missing id",
			yaml:    "solana:\n  program: {}\n",
			wantErr: ErrMissingProgramID,
		},
		{
			name:    "system program",
			yaml:    "solana:\n  program:\n    id: 11111111111111111111111111111111\n",
			wantErr: ValidationError{},
		},
		{
			name:    "not base58",
			yaml:    "solana:\n  program:\n    id: not-a-key\n",
			wantErr: ValidationError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseProgramConfig([]byte(tt.yaml))
			switch want := tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("ParseProgramConfig: %v", err)
				}
				pid, _ := cfg.ProgramID()
				if pid.String() != "8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh" {
					t.Errorf("ProgramID = %s", pid)
				}
			case ValidationError:
				var ve ValidationError
				if !errors.As(err, &ve) || ve.Field != "solana.program.id" {
					t.Errorf("error = %v, want ValidationError", err)
				}
			default:
				if !errors.Is(err, want) {
					t.Errorf("error = %v, want %v", err, want)
				}
			}
		})
	}
}

func TestLoadProgramConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("solana:\n  program:\n    id: 8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadProgramConfig(path); err != nil {
		t.Errorf("LoadProgramConfig: %v", err)
	}
	if _, err := LoadProgramConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
