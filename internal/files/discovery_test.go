package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stflow/internal/errors"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestFindDirContaining(t *testing.T) {
	names := []string{"flow_data.npy", "poi_data.npy"}

	tests := []struct {
		name    string
		files   []string
		want    string
		wantErr bool
	}{
		{
			name:  "files directly in root",
			files: []string{"flow_data.npy", "poi_data.npy"},
			want:  ".",
		},
		{
			name:  "nested directory",
			files: []string{"raw/deepstn/BikeNYC/flow_data.npy", "raw/deepstn/BikeNYC/poi_data.npy"},
			want:  "raw/deepstn/BikeNYC",
		},
		{
			name: "depth-first order",
			files: []string{
				"a/b/c/flow_data.npy", "a/b/c/poi_data.npy",
				"z/flow_data.npy", "z/poi_data.npy",
			},
			want: "a/b/c",
		},
		{
			name: "parent checked before children",
			files: []string{
				"data/flow_data.npy", "data/poi_data.npy",
				"data/copy/flow_data.npy", "data/copy/poi_data.npy",
			},
			want: "data",
		},
		{
			name: "siblings visited in name order",
			files: []string{
				"beta/flow_data.npy", "beta/poi_data.npy",
				"alpha/flow_data.npy", "alpha/poi_data.npy",
			},
			want: "alpha",
		},
		{
			name:    "files split across directories",
			files:   []string{"one/flow_data.npy", "two/poi_data.npy"},
			wantErr: true,
		},
		{
			name:    "empty tree",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(root, f))
			}

			got, err := NewDiscovery("", nil).FindDirContaining(root, names...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataNotFound))
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, tt.want), got)
		})
	}
}

func TestFindDirContaining_MissingRoot(t *testing.T) {
	_, err := NewDiscovery("", nil).FindDirContaining(filepath.Join(t.TempDir(), "absent"), "flow_data.npy")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataNotFound))
}

func TestFindDirContaining_RelativeToBase(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "datasets", "nyc", "flow_data.npy"))

	got, err := NewDiscovery(base, nil).FindDirContaining("datasets", "flow_data.npy")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "datasets", "nyc"), got)
}

func TestFindFilesByPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "poi_data.npy"))
	touch(t, filepath.Join(dir, "flow_data.npy"))
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.npy"), 0755))

	found, err := NewDiscovery(dir, nil).FindFilesByPattern(".", "*.npy")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "flow_data.npy", found[0].Name)
	assert.Equal(t, "poi_data.npy", found[1].Name)
}

func TestListDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "BikeNYC"), 0755))
	touch(t, filepath.Join(dir, "README"))

	dirs, err := NewDiscovery("", nil).ListDirectories(dir)
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "BikeNYC", dirs[0].Name)
	assert.True(t, dirs[0].IsDir)

	_, err = NewDiscovery("", nil).ListDirectories(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
