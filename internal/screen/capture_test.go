package screen

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
	"github.com/GriffinCanCode/snapdeck/internal/metrics"
)

type fakeStrategy struct {
	name  string
	data  []byte
	err   error
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Capture(context.Context) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func TestChainFirstSuccessWins(t *testing.T) {
	primary := &fakeStrategy{name: "display", data: []byte("png-1")}
	fallback := &fakeStrategy{name: "script", data: []byte("png-2")}

	data, err := NewChain(nil, primary, fallback).Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("png-1"), data)
	assert.Equal(t, 0, fallback.calls, "fallback should not run when primary succeeds")
}

func TestChainFallsBackOnError(t *testing.T) {
	m := metrics.New()
	primary := &fakeStrategy{name: "display", err: errors.New("no display")}
	fallback := &fakeStrategy{name: "script", data: []byte("png-2")}

	data, err := NewChain(m, primary, fallback).Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("png-2"), data)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CaptureAttempts.WithLabelValues("display", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CaptureAttempts.WithLabelValues("script", "ok")))
}

func TestChainTreatsEmptyOutputAsFailure(t *testing.T) {
	primary := &fakeStrategy{name: "display", data: []byte{}}
	fallback := &fakeStrategy{name: "script", data: []byte("png")}

	data, err := NewChain(nil, primary, fallback).Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
	assert.Equal(t, 1, primary.calls)
}

func TestChainAllFail(t *testing.T) {
	last := errors.New("powershell exited 1")
	chain := NewChain(nil,
		&fakeStrategy{name: "display", err: errors.New("no display")},
		&fakeStrategy{name: "script", err: last},
	)

	data, err := chain.Capture(context.Background())
	assert.Nil(t, data)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCaptureFailed))
	assert.ErrorIs(t, err, last)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "2", appErr.Metadata["attempts"])
	assert.Equal(t, "display,script", appErr.Metadata["strategies"])
}

func TestChainAllEmpty(t *testing.T) {
	_, err := NewChain(nil, &fakeStrategy{name: "display"}).Capture(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCapture)
}

func TestChainWithoutStrategies(t *testing.T) {
	_, err := NewChain(nil).Capture(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCaptureFailed))
}

func TestChainHonorsCancelledContext(t *testing.T) {
	s := &fakeStrategy{name: "display", data: []byte("png")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChain(nil, s).Capture(ctx)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCaptureFailed))
	assert.Equal(t, 0, s.calls)
}

func TestChainNames(t *testing.T) {
	chain := NewChain(nil, DisplayStrategy{}, NewCommandStrategy("scrot", t.TempDir(), nil))
	assert.Equal(t, []string{"display", "scrot"}, chain.Names())
}

func TestPlatformChainHasFallback(t *testing.T) {
	chain := New(t.TempDir(), nil)
	names := chain.Names()
	require.NotEmpty(t, names)
	assert.Equal(t, "display", names[0], "every platform tries the in-memory grab first")
	switch runtime.GOOS {
	case "darwin", "linux", "windows":
		assert.GreaterOrEqual(t, len(names), 2, "native platforms carry a fallback strategy")
	}
	if runtime.GOOS == "windows" {
		assert.Equal(t, []string{"display", "powershell"}, names)
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp captures should be removed")
}

func TestCommandStrategyReadsAndRemovesTempFile(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	s := NewCommandStrategy("sh", dir, func(out string) (string, []string) {
		return "sh", []string{"-c", `printf 'fake-png' > "$0"`, out}
	})

	data, err := s.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), data)
	assertDirEmpty(t, dir)
}

func TestCommandStrategyCleansUpOnFailure(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	s := NewCommandStrategy("sh", dir, func(out string) (string, []string) {
		return "sh", []string{"-c", `printf 'partial' > "$0"; echo denied >&2; exit 3`, out}
	})

	_, err := s.Capture(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	assertDirEmpty(t, dir)
}

func TestCommandStrategyMissingOutput(t *testing.T) {
	requireShell(t)
	s := NewCommandStrategy("sh", t.TempDir(), func(string) (string, []string) {
		return "sh", []string{"-c", "true"}
	})

	_, err := s.Capture(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not written")
}

func TestCommandStrategyMissingProgram(t *testing.T) {
	s := NewCommandStrategy("nope", t.TempDir(), func(string) (string, []string) {
		return "snapdeck-definitely-not-installed", nil
	})

	_, err := s.Capture(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestTempPathIsUnique(t *testing.T) {
	dir := t.TempDir()
	a, b := tempPath(dir), tempPath(dir)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, dir))
	assert.True(t, strings.HasSuffix(a, ".png"))
}

func TestPowerShellScriptQuotesPath(t *testing.T) {
	script := PowerShellScript(`C:\Users\o'brien\temp-1.png`)
	assert.Contains(t, script, `$bmp.Save('C:\Users\o''brien\temp-1.png', [System.Drawing.Imaging.ImageFormat]::Png)`)
	assert.Contains(t, script, "AllScreens")
}
