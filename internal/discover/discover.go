// Package discover enumerates candidate texture files under a mods root,
// pruning folders that never contain game textures.
package discover

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"texopt/internal/models"
)

// Folders that are pruned before descent. Matched case-sensitively against
// each path segment, the same set the game tooling has always skipped.
var skipFolders = map[string]bool{
	"About":      true,
	"Assemblies": true,
	"Defs":       true,
	"Languages":  true,
	"Patches":    true,
	"Sounds":     true,
	"Source":     true,
	".git":       true,
	".svn":       true,
	"Common":     true,
	"v1.0":       true,
	"v1.1":       true,
	"v1.2":       true,
	"v1.3":       true,
	"v1.4":       true,
	"v1.5":       true,
}

// Filename substrings (lowercase) that mark non-texture images such as mod
// previews and icons.
var skipPatterns = []string{
	"_preview.png",
	"_thumb.png",
	"preview.png",
	"thumbnail.png",
	"icon.png",
	"logo.png",
}

const (
	// SourceExt is the input image extension.
	SourceExt = ".png"
	// OutputExt is the compressed output extension.
	OutputExt = ".dds"
)

// Find walks root and returns every candidate source texture: extension
// match is case-insensitive, excluded folders are pruned before descent so
// their contents are never visited, and preview/icon style filenames are
// dropped. An unreadable directory is logged and skipped; it never aborts
// the scan. The result is sorted for stable logs only - callers must not
// rely on processing order.
func Find(root string, rep models.Reporter) []string {
	return walk(root, SourceExt, true, rep)
}

// FindOutputs returns every compressed output file under root, applying the
// same folder pruning as Find. Filename patterns are not applied: an output
// is a candidate for restore regardless of its name.
func FindOutputs(root string, rep models.Reporter) []string {
	return walk(root, OutputExt, false, rep)
}

func walk(root, ext string, applyPatterns bool, rep models.Reporter) []string {
	var files []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			rep.Log("Cannot read "+path+": "+err.Error(), models.LevelWarning)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skipFolders[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ext) {
			return nil
		}
		if applyPatterns && matchesSkipPattern(name) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)
	return files
}

func matchesSkipPattern(lowerName string) bool {
	for _, p := range skipPatterns {
		if strings.Contains(lowerName, p) {
			return true
		}
	}
	return false
}
