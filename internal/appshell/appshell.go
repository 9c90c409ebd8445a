// Package appshell prepares the generated site for the mobile app packager.
package appshell

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppDir is the packager project folder inside the site folder.
const AppDir = "app"

// Dir returns the packager working directory for siteDir.
func Dir(siteDir string) string { return filepath.Join(siteDir, AppDir) }

// WWWDir returns the folder the packager bundles as the app's web content.
func WWWDir(siteDir string) string { return filepath.Join(siteDir, AppDir, "www") }

// Assemble moves every entry of siteDir except the app folder into
// app/www and returns the number of entries moved.
func Assemble(siteDir string) (int, error) {
	entries, err := os.ReadDir(siteDir)
	if err != nil {
		return 0, fmt.Errorf("read site: %w", err)
	}
	www := WWWDir(siteDir)
	if err := os.MkdirAll(www, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", www, err)
	}
	moved := 0
	for _, e := range entries {
		if e.Name() == AppDir {
			continue
		}
		dst := filepath.Join(www, e.Name())
		if err := os.RemoveAll(dst); err != nil {
			return moved, fmt.Errorf("replace %s: %w", dst, err)
		}
		if err := os.Rename(filepath.Join(siteDir, e.Name()), dst); err != nil {
			return moved, fmt.Errorf("move %s: %w", e.Name(), err)
		}
		moved++
	}
	return moved, nil
}

// PackagerArgs lists the packager invocations for a build, in order.
func PackagerArgs(platform string, release, emulate bool) [][]string {
	build := []string{"build", platform}
	if release {
		build = append(build, "--release")
	}
	out := [][]string{
		{"platform", "add", platform},
		{"prepare", platform},
		build,
	}
	if emulate {
		out = append(out, []string{"emulate", platform})
	}
	return out
}
