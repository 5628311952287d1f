package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "mongodb", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:   "valid sqlite config",
			config: Config{Backend: BackendSQLite, DataDir: "/tmp/data"},
		},
		{
			name:   "valid jsonl config",
			config: Config{Backend: BackendJSONL, DataDir: "/tmp/data"},
		},
		{
			name:   "memory backend needs no data dir",
			config: Config{Backend: BackendMemory},
		},
		{
			name:    "postgres without DSN returns ErrDSNRequired",
			config:  Config{Backend: BackendPostgres},
			wantErr: ErrDSNRequired,
		},
		{
			name:   "postgres with DSN",
			config: Config{Backend: BackendPostgres, PostgresDSN: "postgres://localhost/stacks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
