// Package capture records microphone audio by supervising an ffmpeg
// subprocess and hands back the finished artifact as one blob.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Artifact is a finished audio recording.
type Artifact struct {
	Data     []byte
	MimeType string
}

// PermissionError reports that the microphone could not be opened —
// access denied, device busy, or no such device. The recording session
// must not start and nothing is persisted.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone unavailable: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// Default ffmpeg input settings.
const (
	DefaultFFmpegPath = "ffmpeg"
	DefaultFormat     = "pulse"
	DefaultDevice     = "default"
)

// startupProbe is how long Start watches the subprocess for an immediate
// device-open failure before declaring the capture healthy.
const startupProbe = 300 * time.Millisecond

// Recorder captures audio from an input device via ffmpeg.
type Recorder struct {
	FFmpegPath string // defaults to "ffmpeg" on PATH
	Format     string // input format, e.g. "pulse", "alsa", "avfoundation"
	Device     string // input device name, e.g. "default"

	mu      sync.Mutex
	cmd     *exec.Cmd
	waitErr chan error
	outPath string
	stderr  *bytes.Buffer
}

// NewRecorder returns a Recorder for the given ffmpeg input.
func NewRecorder(ffmpegPath, format, device string) *Recorder {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}
	return &Recorder{FFmpegPath: ffmpegPath, Format: format, Device: device}
}

// Check verifies that ffmpeg is installed.
func (r *Recorder) Check() error {
	if _, err := exec.LookPath(r.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	return nil
}

// Start begins capturing to a temp file. A device that cannot be opened is
// reported as a *PermissionError and the capture does not start.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return errors.New("capture already running")
	}

	dir, err := os.MkdirTemp("", "meetingmind-rec-")
	if err != nil {
		return fmt.Errorf("create capture dir: %w", err)
	}
	outPath := filepath.Join(dir, "recording.webm")

	cmd := exec.CommandContext(ctx, r.FFmpegPath,
		"-f", r.Format,
		"-i", r.Device,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "libopus",
		"-y",
		outPath,
	)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	// ffmpeg exits immediately when it cannot open the input device.
	select {
	case err := <-waitErr:
		os.RemoveAll(dir)
		if err == nil {
			err = errors.New("ffmpeg exited during startup")
		}
		detail := fmt.Errorf("%v: %s", err, lastLine(stderr.String()))
		if deniedDevice(stderr.String()) {
			return &PermissionError{Err: detail}
		}
		return fmt.Errorf("capture startup: %w", detail)
	case <-time.After(startupProbe):
	}

	r.cmd = cmd
	r.waitErr = waitErr
	r.outPath = outPath
	r.stderr = stderr
	return nil
}

// Stop signals ffmpeg to finalize the container and returns the artifact.
func (r *Recorder) Stop() (*Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil {
		return nil, errors.New("capture not running")
	}
	cmd := r.cmd
	waitErr := r.waitErr
	outPath := r.outPath
	r.cmd = nil
	r.waitErr = nil
	defer os.RemoveAll(filepath.Dir(outPath))

	// ffmpeg finalizes the output on SIGINT.
	_ = cmd.Process.Signal(os.Interrupt)
	select {
	case <-waitErr:
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		<-waitErr
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}

	return &Artifact{Data: data, MimeType: "audio/webm;codecs=opus"}, nil
}

// deniedDevice recognizes ffmpeg stderr for a device that could not be
// opened.
func deniedDevice(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "permission denied") ||
		strings.Contains(s, "device or resource busy") ||
		strings.Contains(s, "no such device") ||
		strings.Contains(s, "cannot open audio device")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
