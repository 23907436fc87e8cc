// Package health reports whether the local installation is ready to chat.
package health

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"time"
)

// Options selects what Collect inspects.
type Options struct {
	ConfigPath   string
	IdentityPath string
	LogPath      string

	Strategy   string
	Remote     bool
	Model      string
	HasKey     bool     // key present in config or flags
	EnvKeys    []string // checked when HasKey is false
	ConfigErr  error
	IdentityOK bool
}

// Snapshot is the collected report.
type Snapshot struct {
	Status    string        `json:"status" yaml:"status"`
	Problems  []string      `json:"problems,omitempty" yaml:"problems,omitempty"`
	Runtime   RuntimeInfo   `json:"runtime" yaml:"runtime"`
	Files     []FileInfo    `json:"files" yaml:"files"`
	Responder ResponderInfo `json:"responder" yaml:"responder"`
	Timestamp string        `json:"timestamp" yaml:"timestamp"`
}

// RuntimeInfo describes the process.
type RuntimeInfo struct {
	Version    string `json:"version" yaml:"version"`
	OS         string `json:"os" yaml:"os"`
	Arch       string `json:"arch" yaml:"arch"`
	Goroutines int    `json:"goroutines" yaml:"goroutines"`
}

// FileInfo describes one file papo reads or writes.
type FileInfo struct {
	Name          string `json:"name" yaml:"name"`
	Path          string `json:"path" yaml:"path"`
	Exists        bool   `json:"exists" yaml:"exists"`
	FileSizeBytes int64  `json:"fileSizeBytes,omitempty" yaml:"fileSizeBytes,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ResponderInfo describes the selected strategy.
type ResponderInfo struct {
	Strategy string `json:"strategy" yaml:"strategy"`
	Remote   bool   `json:"remote" yaml:"remote"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	KeyFrom  string `json:"keyFrom,omitempty" yaml:"keyFrom,omitempty"` // config, or the env var that supplied it
	Ready    bool   `json:"ready" yaml:"ready"`
}

// Collect returns a health snapshot for the current installation.
func Collect(opts Options) Snapshot {
	s := Snapshot{
		Status: "healthy",
		Runtime: RuntimeInfo{
			Version:    runtime.Version(),
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			Goroutines: runtime.NumGoroutine(),
		},
		Files: []FileInfo{
			inspectFile("config", opts.ConfigPath),
			inspectFile("identity", opts.IdentityPath),
			inspectFile("log", opts.LogPath),
		},
		Responder: ResponderInfo{
			Strategy: opts.Strategy,
			Remote:   opts.Remote,
			Model:    opts.Model,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if opts.ConfigErr != nil {
		s.Problems = append(s.Problems, "config: "+opts.ConfigErr.Error())
	}
	if !opts.IdentityOK {
		s.Problems = append(s.Problems, "no valid identity stored, run 'papo onboard'")
	}

	switch {
	case !opts.Remote:
		s.Responder.Ready = true
	case opts.HasKey:
		s.Responder.KeyFrom = "config"
		s.Responder.Ready = true
	default:
		for _, key := range opts.EnvKeys {
			if strings.TrimSpace(os.Getenv(key)) != "" {
				s.Responder.KeyFrom = key
				s.Responder.Ready = true
				break
			}
		}
	}
	if !s.Responder.Ready {
		s.Problems = append(s.Problems, "no API key for "+opts.Strategy+" (set it in config or "+strings.Join(opts.EnvKeys, "/")+")")
	}

	if len(s.Problems) > 0 {
		s.Status = "degraded"
	}
	return s
}

func inspectFile(name, path string) FileInfo {
	info := FileInfo{Name: name, Path: path}
	if path == "" {
		return info
	}

	stat, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			info.Error = err.Error()
		}
		return info
	}

	info.Exists = true
	info.FileSizeBytes = stat.Size()
	info.UpdatedAt = stat.ModTime().Format(time.RFC3339)
	return info
}
