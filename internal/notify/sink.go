package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// Permission is the user's answer to "may this app raise OS alerts".
type Permission int

const (
	PermissionDefault Permission = iota // not yet asked
	PermissionGranted
	PermissionDenied
)

// ParsePermission maps a config value to a Permission.
func ParsePermission(s string) Permission {
	switch s {
	case "granted":
		return PermissionGranted
	case "denied":
		return PermissionDenied
	default:
		return PermissionDefault
	}
}

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "default"
	}
}

// Sink delivers OS-level alerts.
type Sink interface {
	Permission() Permission
	RequestPermission(ctx context.Context) Permission
	Show(ctx context.Context, title, body string) error
}

// CommandSink raises desktop alerts through notify-send (Linux) or
// osascript (macOS). Without either binary it is permanently denied.
type CommandSink struct {
	mu         sync.Mutex
	permission Permission
	lookPath   func(string) (string, error)
	goos       string
}

// NewCommandSink returns a sink starting from the stored permission.
func NewCommandSink(initial Permission) *CommandSink {
	return &CommandSink{
		permission: initial,
		lookPath:   exec.LookPath,
		goos:       runtime.GOOS,
	}
}

// Permission returns the current permission.
func (s *CommandSink) Permission() Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

// RequestPermission resolves a default permission by probing for an alert
// binary. An explicit answer is never overridden.
func (s *CommandSink) RequestPermission(_ context.Context) Permission {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.permission != PermissionDefault {
		return s.permission
	}
	if _, err := s.binary(); err != nil {
		s.permission = PermissionDenied
	} else {
		s.permission = PermissionGranted
	}
	return s.permission
}

// Show displays title and body. It is a no-op unless permission is granted.
func (s *CommandSink) Show(ctx context.Context, title, body string) error {
	if s.Permission() != PermissionGranted {
		return nil
	}

	bin, err := s.binary()
	if err != nil {
		return err
	}

	var cmd *exec.Cmd
	if s.goos == "darwin" {
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.CommandContext(ctx, bin, "-e", script)
	} else {
		cmd = exec.CommandContext(ctx, bin, title, body)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", bin, err)
	}
	return nil
}

func (s *CommandSink) binary() (string, error) {
	name := "notify-send"
	if s.goos == "darwin" {
		name = "osascript"
	}
	path, err := s.lookPath(name)
	if err != nil {
		return "", fmt.Errorf("alert capability unavailable: %w", err)
	}
	return path, nil
}
