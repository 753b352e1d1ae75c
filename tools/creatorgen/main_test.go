package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file with parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fakeModule lays out a minimal module with a creators tree and returns
// the creators directory.
func fakeModule(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/lab\n\ngo 1.24.6\n")

	creators := filepath.Join(root, "creators")
	writeFile(t, filepath.Join(creators, "creator.go"), "package creators\n")
	writeFile(t, filepath.Join(creators, "file", "file.go"), "package file\n")
	writeFile(t, filepath.Join(creators, "env", "env.go"), "package env\n")
	writeFile(t, filepath.Join(creators, "env", "env_test.go"), "package env\n")

	// Directories the scan must skip.
	writeFile(t, filepath.Join(creators, "all", "all.go"), "package all\n")
	writeFile(t, filepath.Join(creators, "testdata", "lab.yaml"), "name: lab\n")
	writeFile(t, filepath.Join(creators, ".cache", "x.go"), "package cache\n")
	writeFile(t, filepath.Join(creators, "_draft", "draft.go"), "package draft\n")
	writeFile(t, filepath.Join(creators, "docs", "README.md"), "docs\n")
	writeFile(t, filepath.Join(creators, "testonly", "x_test.go"), "package testonly\n")

	return creators
}

func TestDiscoverCreators(t *testing.T) {
	creators := fakeModule(t)

	names, err := discoverCreators(creators)

	require.NoError(t, err)
	assert.Equal(t, []string{"env", "file"}, names)
}

func TestImportPrefix(t *testing.T) {
	creators := fakeModule(t)

	prefix, err := importPrefix(creators)

	require.NoError(t, err)
	assert.Equal(t, "example.com/lab/creators", prefix)
}

func TestImportPrefix_NoModule(t *testing.T) {
	dir := t.TempDir()

	_, err := importPrefix(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no go.mod")
}

func TestModulePath(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		want      string
		wantErr   bool
		errString string
	}{
		{
			name:    "plain module line",
			content: "module example.com/lab\n\ngo 1.24.6\n",
			want:    "example.com/lab",
		},
		{
			name:    "leading comment",
			content: "// the lab module\nmodule example.com/lab\n",
			want:    "example.com/lab",
		},
		{
			name:      "missing directive",
			content:   "go 1.24.6\n",
			wantErr:   true,
			errString: "no module directive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "go.mod")
			writeFile(t, path, tt.content)

			got, err := modulePath(path)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderAll(t *testing.T) {
	src, err := renderAll("all", "example.com/lab/creators", []string{"env", "file"})

	require.NoError(t, err)
	text := string(src)
	assert.Contains(t, text, "// Code generated by creatorgen. DO NOT EDIT.")
	assert.Contains(t, text, "package all")
	assert.Contains(t, text, `_ "example.com/lab/creators/env"`)
	assert.Contains(t, text, `_ "example.com/lab/creators/file"`)
}

func TestRun(t *testing.T) {
	creators := fakeModule(t)

	err := run(creators, "all/all.go", "all")

	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(creators, "all", "all.go"))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Code generated by creatorgen")
	assert.Contains(t, text, `_ "example.com/lab/creators/env"`)
	assert.Contains(t, text, `_ "example.com/lab/creators/file"`)
	assert.NotContains(t, text, "draft")
	assert.NotContains(t, text, "testonly")
}

func TestRun_EmptyTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/lab\n")
	creators := filepath.Join(root, "creators")
	require.NoError(t, os.MkdirAll(creators, 0o755))

	err := run(creators, "all/all.go", "all")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no creator packages found")
}
