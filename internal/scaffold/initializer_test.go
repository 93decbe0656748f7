package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/ember/internal/config"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestInitializeIn(t *testing.T) {
	tests := []struct {
		name       string
		device     string
		force      bool
		setup      func(t *testing.T, dir string)
		wantErr    string
		wantDevice string
	}{
		{
			name:       "fresh directory with default device",
			wantDevice: DefaultDevice,
		},
		{
			name:       "custom device",
			device:     "bench-7",
			wantDevice: "bench-7",
		},
		{
			name:   "existing config without force",
			device: "bench-7",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("old"), 0644))
			},
			wantErr: "already initialized",
		},
		{
			name:   "force replaces existing config",
			device: "bench-8",
			force:  true,
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("old"), 0644))
			},
			wantDevice: "bench-8",
		},
		{
			name:    "invalid device name",
			device:  "bad:name",
			wantErr: "invalid device name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.setup != nil {
				tt.setup(t, dir)
			}

			err := InitializeIn(dir, tt.device, tt.force)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			cfg, err := config.LoadWithEnv(filepath.Join(dir, config.FileName), map[string]string{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDevice, cfg.Device.Name)
			assert.Equal(t, "ws://localhost:8080/ws", cfg.Server.URL)
			assert.False(t, cfg.MirrorEnabled())

			info, err := os.Stat(filepath.Join(dir, config.FileName))
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
		})
	}
}

func TestInitializeUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(original)

	require.NoError(t, Initialize("", false))
	assert.FileExists(t, filepath.Join(dir, config.FileName))
}

func TestGetTemplateFilesRendersDevice(t *testing.T) {
	files, err := getTemplateFiles("lamp")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, config.FileName, files[0].Path)
	assert.Contains(t, string(files[0].Content), "name: lamp")
	assert.NotContains(t, string(files[0].Content), "{{DEVICE}}")
}
