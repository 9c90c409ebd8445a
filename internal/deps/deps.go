package deps

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement defines an external tool a pipeline stage relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
	Guidance    string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			status.Guidance = Guidance(cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

var guidance = map[string]string{
	"bundle":    "install Ruby and Bundler, then run `bookbuilder install`",
	"gulp":      "run `npm install --global gulp-cli` and `bookbuilder install`",
	"npm":       "install Node.js from https://nodejs.org",
	"prince":    "install PrinceXML from https://www.princexml.com/download/",
	"pandoc":    "install Pandoc from https://pandoc.org/installing.html",
	"cordova":   "run `npm install --global cordova`",
	"epubcheck": "install EPUBCheck from https://www.w3.org/publishing/epubcheck/ and put it on PATH",
}

// Guidance returns install advice for a binary, keyed by its base name.
func Guidance(binary string) string {
	base := strings.TrimSuffix(filepath.Base(binary), filepath.Ext(binary))
	if g, ok := guidance[base]; ok {
		return g
	}
	return fmt.Sprintf("make sure %q is installed and on PATH", binary)
}
