package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"warden/internal/daemonrun"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 12
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func renderPlainLine(label, value string) string {
	return fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// lockStatusLine maps a lock state to a severity and a short explanation.
func lockStatusLine(status daemonrun.Status) (statusKind, string) {
	switch status.State {
	case daemonrun.StateRunning:
		if status.Self {
			return statusOK, fmt.Sprintf("held by this process (pid %d)", status.PID)
		}
		return statusOK, fmt.Sprintf("held by pid %d", status.PID)
	case daemonrun.StateStale:
		return statusWarn, fmt.Sprintf("stale: pid %d is not running; the next start or stop removes it", status.PID)
	case daemonrun.StateUnreadable:
		return statusError, "pid file content is not a PID; stop removes it"
	case daemonrun.StateUnlocked:
		return statusInfo, "not running"
	default:
		return statusInfo, "locking disabled (pidfile.path is empty)"
	}
}

func renderStatus(w io.Writer, status daemonrun.Status, colorize bool) {
	for _, line := range renderSectionHeader("Warden Status", colorize) {
		fmt.Fprintln(w, line)
	}
	kind, detail := lockStatusLine(status)
	fmt.Fprintln(w, renderStatusLine("Lock", kind, detail, colorize))
	if status.PIDFile != "" {
		fmt.Fprintln(w, renderPlainLine("PID file", status.PIDFile))
	}
	if status.PID > 0 {
		fmt.Fprintln(w, renderPlainLine("Owner alive", yesNo(status.Alive)))
	}
}
