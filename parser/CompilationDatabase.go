package parser

import (
	"os"
	"path/filepath"

	"github.com/goma/gomacc/internal/base"
)

// CompileCommand is one entry of a clang compile_commands.json
// database. https://clang.llvm.org/docs/JSONCompilationDatabase.html
type CompileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

// CompilationDatabase is the full array from one compile_commands.json.
type CompilationDatabase []CompileCommand

// LoadCompilationDatabase reads and decodes path.
func LoadCompilationDatabase(path string) (CompilationDatabase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var db CompilationDatabase
	if err := base.JsonDeserialize(&db, f); err != nil {
		return nil, err
	}
	return db, nil
}

// FindCompilationDatabase walks up from startDir looking for
// compile_commands.json, the same fallback clang-tidy uses when no
// -p= build path was given.
func FindCompilationDatabase(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, "compile_commands.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// FindCommandForSource returns the first entry whose resolved
// directory/file matches sourcePath.
func (db CompilationDatabase) FindCommandForSource(sourcePath string) (CompileCommand, bool) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		abs = sourcePath
	}
	for _, entry := range db {
		candidate := entry.File
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(entry.Directory, candidate)
		}
		if candidate == abs {
			return entry, true
		}
	}
	return CompileCommand{}, false
}
