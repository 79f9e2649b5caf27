package hostenv

import (
	"context"
	"io"
	"log/slog"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastlinehq/lastline/pkg/lastline"
)

var _ lastline.Environment = (*Process)(nil)

func fakeEnv(vars map[string]string) Option {
	return WithGetenv(func(name string) string {
		return vars[name]
	})
}

func TestReportingMask_DefaultsToAll(t *testing.T) {
	p := New(fakeEnv(nil))
	assert.Equal(t, lastline.SeverityAll, p.ReportingMask())
}

func TestReportingMask_ParsesTokens(t *testing.T) {
	tests := []struct {
		raw  string
		want lastline.Severity
	}{
		{"error", lastline.SeverityError},
		{"warning,error", lastline.SeverityWarning | lastline.SeverityError},
		{" Critical , NOTICE ", lastline.SeverityCritical | lastline.SeverityNotice},
		{"all", lastline.SeverityAll},
		{"none", 0},
		{"error,bogus", lastline.SeverityError},
	}
	for _, tt := range tests {
		p := New(fakeEnv(map[string]string{EnvReportingMask: tt.raw}))
		assert.Equal(t, tt.want, p.ReportingMask(), "mask %q", tt.raw)
	}
}

func TestBoolDefaults(t *testing.T) {
	p := New(fakeEnv(nil))
	assert.True(t, p.LogErrorsDefault(), "mirroring defaults on")
	assert.False(t, p.IgnoreRepeatedDefault())
	assert.False(t, p.IgnoreRepeatedSourceDefault())

	p = New(fakeEnv(map[string]string{
		EnvLogErrors:            "0",
		EnvIgnoreRepeated:       "true",
		EnvIgnoreRepeatedSource: "junk",
	}))
	assert.False(t, p.LogErrorsDefault())
	assert.True(t, p.IgnoreRepeatedDefault())
	assert.False(t, p.IgnoreRepeatedSourceDefault(), "junk falls back")
}

func TestResourceCeiling_RoundTrip(t *testing.T) {
	orig := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(orig)

	p := New(fakeEnv(nil))

	require.NoError(t, p.SetResourceCeiling("64M"))
	assert.Equal(t, "64M", p.ResourceCeiling())

	require.NoError(t, p.SetResourceCeiling(unlimitedCeiling))
	assert.Equal(t, unlimitedCeiling, p.ResourceCeiling())
}

func TestSetResourceCeiling_RejectsJunk(t *testing.T) {
	orig := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(orig)

	p := New(fakeEnv(nil))
	assert.Error(t, p.SetResourceCeiling("a lot"))
}

func TestRaiseSignal_ForwardsAndLatches(t *testing.T) {
	p := New(fakeEnv(nil))

	var got []lastline.Record
	require.NoError(t, p.InstallHooks(lastline.Hooks{
		Signal: func(ctx context.Context, code lastline.Severity, message, file string, line int) {
			got = append(got, lastline.NewSignalRecord(code, message, file, line))
		},
	}))

	p.RaiseSignal(context.Background(), lastline.SeverityError, "boom", "a.go", 12)

	require.Len(t, got, 1)
	assert.Equal(t, "boom", got[0].Message)

	last, ok := p.LastCondition()
	require.True(t, ok, "condition should be latched")
	assert.Equal(t, "boom", last.Message)
	assert.Equal(t, lastline.SeverityError, last.Code)
}

func TestRaiseSignal_LatchesWithoutHooks(t *testing.T) {
	p := New(fakeEnv(nil))
	p.RaiseSignal(context.Background(), lastline.SeverityCritical, "fatal", "a.go", 1)

	last, ok := p.LastCondition()
	require.True(t, ok)
	assert.Equal(t, "fatal", last.Message)
}

func TestRaiseException_Forwards(t *testing.T) {
	p := New(fakeEnv(nil))

	var got []lastline.Record
	require.NoError(t, p.InstallHooks(lastline.Hooks{
		Exception: func(ctx context.Context, rec lastline.Record) {
			got = append(got, rec)
		},
	}))

	p.RaiseException(context.Background(), lastline.NewExceptionRecord("escaped", "svc.go", 4))
	require.Len(t, got, 1)
	assert.Equal(t, "escaped", got[0].Message)
}

func TestRemoveHooks_StopsForwarding(t *testing.T) {
	p := New(fakeEnv(nil))

	calls := 0
	require.NoError(t, p.InstallHooks(lastline.Hooks{
		Signal: func(ctx context.Context, code lastline.Severity, message, file string, line int) {
			calls++
		},
	}))
	require.NoError(t, p.RemoveHooks())

	p.RaiseSignal(context.Background(), lastline.SeverityError, "boom", "a.go", 1)
	assert.Equal(t, 0, calls)
}

func TestShutdown_RunsFinalizeOnce(t *testing.T) {
	p := New(fakeEnv(nil))

	calls := 0
	require.NoError(t, p.InstallHooks(lastline.Hooks{
		Finalize: func(ctx context.Context) {
			calls++
		},
	}))

	p.Shutdown(context.Background())
	p.Shutdown(context.Background())
	assert.Equal(t, 1, calls, "finalize runs exactly once")
}

func TestNoteCondition_LatchesSilently(t *testing.T) {
	p := New(fakeEnv(nil))

	delivered := 0
	require.NoError(t, p.InstallHooks(lastline.Hooks{
		Signal: func(ctx context.Context, code lastline.Severity, message, file string, line int) {
			delivered++
		},
	}))

	p.NoteCondition(lastline.NewSignalRecord(lastline.SeverityCritical, "oom", "", 0))
	assert.Equal(t, 0, delivered)

	last, ok := p.LastCondition()
	require.True(t, ok)
	assert.Equal(t, "oom", last.Message)
}

func TestWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := New(WithLogger(logger), fakeEnv(nil))
	assert.Same(t, logger, p.Logger())
}
