package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"epubres/config"
	"epubres/state"
)

// buildOutputPath returns constructed output path based on various input
// parameters. It uses either default naming scheme or user-defined template
// and takes into account whether to preserve source directory structure on
// the output. Result is a directory or, when archive is requested, a zip
// file name. It cleans up path and if requested transliterates it.
func buildOutputPath(b bookInfo, src, dst string, env *state.LocalEnv) string {
	outDir := env.OutputDir(src, dst)
	defaultName := buildDefaultName(src, b.archive, env)

	if env.Cfg.Output.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultName)
	}

	expandedName := expandOutputNameTemplate(b, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultName)
	}

	return assemblePathWithSubdirs(outDir, expandedName, b.archive, env)
}

func buildDefaultName(src string, archive bool, env *state.LocalEnv) string {
	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if env.Cfg.Output.FileNameTransliterate {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(baseName) + getExtension(archive)
}

func getExtension(archive bool) string {
	if archive {
		return ".zip"
	}
	return ""
}

func expandOutputNameTemplate(b bookInfo, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(b, config.OutputNameTemplateFieldName, env.Cfg.Output.OutputNameTemplate)
	if err != nil {
		env.Logger("output").Warn("Unable to prepare output name", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(strings.TrimSpace(expandedName))
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, archive bool, env *state.LocalEnv) string {
	pathSegments := splitAndCleanPath(expandedName)

	if len(pathSegments) == 0 {
		return outDir
	}

	name := cleanPathSegment(pathSegments[len(pathSegments)-1], env) + getExtension(archive)
	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)

	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}

	dirParts = append(dirParts, name)
	return filepath.Join(dirParts...)
}

func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}

	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Output.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
