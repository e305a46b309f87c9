package host

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vsbridge/bridge"
	"github.com/opd-ai/vsbridge/format"
	"github.com/opd-ai/vsbridge/geometry"
	"github.com/opd-ai/vsbridge/synth"
	"github.com/opd-ai/vsbridge/transcode"
)

const clip420 = `
clips:
  - format: YUV420P8
    width: 16
    height: 8
    frames: 3
    fps_num: 30000
    fps_den: 1001
`

const clip10 = `
clips:
  - format: YUV422P10
    width: 16
    height: 4
    frames: 2
    fps_num: 25
    fps_den: 1
`

func TestOpenSource_Inline(t *testing.T) {
	eng := synth.NewEngine()
	h := New(eng)

	handle, err := h.OpenSource(OpenRequest{Source: clip420, Inline: true})
	require.NoError(t, err)
	assert.Equal(t, 1, h.Sessions())

	g, err := h.Geometry(handle)
	require.NoError(t, err)
	assert.Equal(t, geometry.FrameGeometry{
		Width: 16, Height: 8, NumFrames: 3, FPSNum: 30000, FPSDen: 1001, Format: format.I420,
	}, g)

	buf, err := h.Frame(handle, 1)
	require.NoError(t, err)
	assert.Len(t, buf.Planes, 3)

	require.NoError(t, h.Close(handle))
	assert.Zero(t, h.Sessions())
	assert.Zero(t, eng.Stats().LiveNodes)
	assert.Equal(t, 1, eng.Stats().Finalizations)
}

func TestOpenSource_StackedAndNative(t *testing.T) {
	eng := synth.NewEngine()

	legacy := New(eng)
	handle, err := legacy.OpenSource(OpenRequest{Source: clip10, Inline: true, Stacked: true})
	require.NoError(t, err)
	info, err := legacy.Info(handle)
	require.NoError(t, err)
	assert.Equal(t, "YUV422P10", info.Producer)
	assert.Equal(t, geometry.Stacked, info.Mode)
	assert.Equal(t, transcode.Stack, info.Kind)
	assert.Equal(t, format.YV16, info.Geometry.Format)
	assert.Equal(t, 8, info.Geometry.Height)
	require.NoError(t, legacy.Shutdown())

	native := New(eng, WithNativeFormats(true))
	handle, err = native.OpenSource(OpenRequest{Source: clip10, Inline: true, Stacked: true})
	require.NoError(t, err)
	info, err = native.Info(handle)
	require.NoError(t, err)
	assert.Equal(t, geometry.Native, info.Mode)
	assert.Equal(t, format.ConsumerYUV422P16, info.Geometry.Format)
	assert.Equal(t, 4, info.Geometry.Height)
	require.NoError(t, native.Shutdown())
}

func TestOpenSource_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(clip420), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.yaml"), []byte("include: [base.yaml]\n"), 0o644))

	h := New(synth.NewEngine())
	handle, err := h.OpenSource(OpenRequest{Source: filepath.Join(dir, "main.yaml")})
	require.NoError(t, err)

	g, err := h.Geometry(handle)
	require.NoError(t, err)
	assert.Equal(t, format.I420, g.Format)
	require.NoError(t, h.Shutdown())
}

func TestOpenSource_LegacyEncodedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "café.yaml"), []byte(clip420), 0o644))

	// "café" with é as the single Windows-1252 byte 0xE9.
	path := filepath.Join(dir, "caf\xe9.yaml")

	h := New(synth.NewEngine(), WithTextEncoding("windows-1252"))
	handle, err := h.OpenSource(OpenRequest{Source: path})
	require.NoError(t, err)
	require.NoError(t, h.Close(handle))

	_, err = New(synth.NewEngine()).OpenSource(OpenRequest{Source: path, TextEncoding: "no-such-charset"})
	require.ErrorIs(t, err, ErrUnsupportedEncoding)
}

func TestOpenSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     OpenRequest
		wantErr error
		prefix  string
	}{
		{
			name:    "empty import",
			req:     OpenRequest{},
			wantErr: ErrNoSource,
			prefix:  "VSImport: ",
		},
		{
			name:    "empty eval",
			req:     OpenRequest{Inline: true},
			wantErr: ErrNoSource,
			prefix:  "VSEval: ",
		},
		{
			name:    "missing file",
			req:     OpenRequest{Source: filepath.Join(t.TempDir(), "absent.yaml")},
			wantErr: bridge.ErrScriptEvaluation,
			prefix:  "VSImport: failed to evaluate script.\n",
		},
		{
			name:    "bad script",
			req:     OpenRequest{Source: "clips: [", Inline: true},
			wantErr: bridge.ErrScriptEvaluation,
			prefix:  "VSEval: failed to evaluate script.\n",
		},
		{
			name:    "missing output",
			req:     OpenRequest{Source: clip420, Inline: true, OutputIndex: 4},
			wantErr: bridge.ErrOutputNode,
			prefix:  "VSEval: failed to get clip (index:4)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := synth.NewEngine()
			h := New(eng)

			_, err := h.OpenSource(tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, strings.HasPrefix(err.Error(), tt.prefix), "got %q", err.Error())
			assert.Zero(t, h.Sessions())

			stats := eng.Stats()
			assert.Zero(t, stats.LiveContexts)
			assert.Zero(t, stats.LiveNodes)
			assert.Equal(t, stats.Initializations, stats.Finalizations)
		})
	}
}

func TestHost_UnknownHandle(t *testing.T) {
	h := New(synth.NewEngine())
	stray := Handle(uuid.New())

	_, err := h.Geometry(stray)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	_, err = h.Info(stray)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	_, err = h.Frame(stray, 0)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	assert.ErrorIs(t, h.Close(stray), ErrUnknownHandle)

	handle, err := h.OpenSource(OpenRequest{Source: clip420, Inline: true})
	require.NoError(t, err)
	require.NoError(t, h.Close(handle))
	assert.ErrorIs(t, h.Close(handle), ErrUnknownHandle)
}

func TestHost_FrameFailureKeepsSession(t *testing.T) {
	script := `
clips:
  - format: Gray8
    width: 8
    height: 2
    frames: 4
    fps_num: 1
    fps_den: 1
    fail_frames: [2]
`
	h := New(synth.NewEngine())
	handle, err := h.OpenSource(OpenRequest{Source: script, Inline: true})
	require.NoError(t, err)

	_, err = h.Frame(handle, 2)
	require.ErrorIs(t, err, bridge.ErrFrameFetch)

	_, err = h.Frame(handle, 3)
	require.NoError(t, err)
	require.NoError(t, h.Shutdown())
}

func TestHost_FrameErrorPrefix(t *testing.T) {
	script := `
clips:
  - format: Gray8
    width: 8
    height: 2
    frames: 3
    fps_num: 1
    fps_den: 1
    fail_frames: [1]
`
	dir := t.TempDir()
	path := filepath.Join(dir, "failing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	tests := []struct {
		name   string
		req    OpenRequest
		prefix string
	}{
		{"inline", OpenRequest{Source: script, Inline: true}, "VSEval: "},
		{"file", OpenRequest{Source: path}, "VSImport: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(synth.NewEngine())
			defer h.Shutdown()

			handle, err := h.OpenSource(tt.req)
			require.NoError(t, err)

			_, err = h.Frame(handle, 1)
			require.ErrorIs(t, err, bridge.ErrFrameFetch)
			assert.True(t, strings.HasPrefix(err.Error(), tt.prefix), "got %q", err.Error())
		})
	}
}

func TestHost_SharedRuntime(t *testing.T) {
	eng := synth.NewEngine()
	h := New(eng)

	first, err := h.OpenSource(OpenRequest{Source: clip420, Inline: true})
	require.NoError(t, err)
	second, err := h.OpenSource(OpenRequest{Source: clip10, Inline: true})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, eng.Stats().Initializations)

	require.NoError(t, h.Close(first))
	assert.Zero(t, eng.Stats().Finalizations)

	require.NoError(t, h.Close(second))
	assert.Equal(t, 1, eng.Stats().Finalizations)
}

func TestHost_Shutdown(t *testing.T) {
	eng := synth.NewEngine()
	h := New(eng)

	for i := 0; i < 3; i++ {
		_, err := h.OpenSource(OpenRequest{Source: clip420, Inline: true})
		require.NoError(t, err)
	}
	require.NoError(t, h.Shutdown())
	assert.Zero(t, h.Sessions())
	assert.Equal(t, 1, eng.Stats().Finalizations)

	_, err := h.OpenSource(OpenRequest{Source: clip420, Inline: true})
	assert.ErrorIs(t, err, ErrHostClosed)
}

func TestParseHandle(t *testing.T) {
	want := Handle(uuid.New())
	got, err := ParseHandle(want.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseHandle("not-a-handle")
	assert.ErrorIs(t, err, ErrUnknownHandle)
}
