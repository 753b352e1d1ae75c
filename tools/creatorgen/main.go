// Command creatorgen scans a creators directory and generates a package
// that blank-imports every creator package it finds, so importing the
// aggregate package registers all creators at once.
package main

import (
	"flag"
	"fmt"
	"go/format"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func main() {
	var (
		dir = flag.String("dir", ".", "creators directory to scan")
		out = flag.String("out", "all/all.go", "output file, relative to -dir")
		pkg = flag.String("pkg", "all", "package name for the generated file")
	)
	flag.Parse()

	if err := run(*dir, *out, *pkg); err != nil {
		log.Fatal(err)
	}
}

func run(dir, out, pkg string) error {
	prefix, err := importPrefix(dir)
	if err != nil {
		return err
	}

	names, err := discoverCreators(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no creator packages found under %s", dir)
	}

	src, err := renderAll(pkg, prefix, names)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, out)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Printf("wrote %s (%d creators)", path, len(names))
	return nil
}

// importPrefix resolves the import path of dir by locating the enclosing
// go.mod and joining its module path with dir's position in the module.
func importPrefix(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	root := abs
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", fmt.Errorf("no go.mod above %s", abs)
		}
		root = parent
	}

	module, err := modulePath(filepath.Join(root, "go.mod"))
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return module, nil
	}
	return module + "/" + filepath.ToSlash(rel), nil
}

// modulePath reads the module directive from a go.mod file.
func modulePath(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", fmt.Errorf("no module directive in %s", path)
}

// discoverCreators lists subdirectories of dir that contain Go source,
// skipping the generated package itself, test fixtures and hidden dirs.
func discoverCreators(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == "all" || name == "testdata" ||
			strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}

		ok, err := hasGoFiles(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

// hasGoFiles reports whether dir directly contains non-test Go source.
func hasGoFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			return true, nil
		}
	}
	return false, nil
}

// renderAll produces the formatted source of the aggregate package.
func renderAll(pkg, prefix string, names []string) ([]byte, error) {
	var b strings.Builder
	b.WriteString("// Code generated by creatorgen. DO NOT EDIT.\n\n")
	b.WriteString("// Package " + pkg + " registers every creator in this module.\n")
	b.WriteString("package " + pkg + "\n\n")
	b.WriteString("import (\n")
	for _, name := range names {
		fmt.Fprintf(&b, "\t_ %q\n", prefix+"/"+name)
	}
	b.WriteString(")\n")

	src, err := format.Source([]byte(b.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to format generated source: %w", err)
	}
	return src, nil
}
