package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeFFmpeg writes a shell script that mimics ffmpeg just enough for the
// Recorder: it either fails immediately with the given stderr, or writes a
// marker file and sleeps until interrupted.
func fakeFFmpeg(t *testing.T, failStderr string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "ffmpeg")

	var script string
	if failStderr != "" {
		script = "#!/bin/sh\necho '" + failStderr + "' >&2\nexit 1\n"
	} else {
		// Last argument is the output path. Write it on SIGINT like the
		// real thing finalizes its container.
		script = `#!/bin/sh
for out; do :; done
trap 'printf audio > "$out"; exit 0' INT
printf '' > "$out"
while :; do sleep 0.05; done
`
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return path
}

func TestStartPermissionDenied(t *testing.T) {
	bin := fakeFFmpeg(t, "default: Permission denied")
	r := NewRecorder(bin, "pulse", "default")

	err := r.Start(context.Background())
	if err == nil {
		t.Fatal("expected error for denied device")
	}
	var perm *PermissionError
	if !errors.As(err, &perm) {
		t.Fatalf("error = %v, want *PermissionError", err)
	}
}

func TestStartOtherFailure(t *testing.T) {
	bin := fakeFFmpeg(t, "Unknown input format: pulse")
	r := NewRecorder(bin, "pulse", "default")

	err := r.Start(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var perm *PermissionError
	if errors.As(err, &perm) {
		t.Fatalf("error = %v, should not be *PermissionError", err)
	}
}

func TestStartStopRoundTrip(t *testing.T) {
	bin := fakeFFmpeg(t, "")
	r := NewRecorder(bin, "pulse", "default")

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	art, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if string(art.Data) != "audio" {
		t.Errorf("artifact data = %q, want %q", art.Data, "audio")
	}
	if art.MimeType != "audio/webm;codecs=opus" {
		t.Errorf("mime = %q", art.MimeType)
	}
}

func TestStopWithoutStart(t *testing.T) {
	r := NewRecorder("ffmpeg", "pulse", "default")
	if _, err := r.Stop(); err == nil {
		t.Error("expected error stopping idle recorder")
	}
}
