package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCommand verifies that program resolves to an executable. Relative
// paths containing a separator are resolved against dir, as exec does.
func CheckCommand(name, program, dir string) Result {
	program = strings.TrimSpace(program)
	if program == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	lookup := program
	if strings.Contains(program, string(filepath.Separator)) && !filepath.IsAbs(program) && dir != "" {
		lookup = filepath.Join(dir, program)
	}
	resolved, err := exec.LookPath(lookup)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", program)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}
