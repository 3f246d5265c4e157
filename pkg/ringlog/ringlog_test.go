package ringlog_test

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/streamcore/pkg/ringlog"
)

func TestOpen_CreatesNewFileWithSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")

	r, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 1024, Schema: "frame_v1"})
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, "frame_v1", r.Schema())
	require.Equal(t, uint64(1024), r.CapacityBytes())
	require.Equal(t, uint64(0), r.WriteHead())
}

func TestOpen_ReopenPreservesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")

	r1, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 1024, Schema: "frame_v1"})
	require.NoError(t, err)

	require.NoError(t, r1.Write(bytes.Repeat([]byte{0xAB}, 100)))
	require.NoError(t, r1.Close())

	r2, err := ringlog.Open(ringlog.Options{Path: path})
	require.NoError(t, err)
	defer r2.Close()

	require.Equal(t, "frame_v1", r2.Schema())
	require.Equal(t, uint64(100), r2.WriteHead())

	snap := r2.Snapshot()
	require.Equal(t, bytes.Repeat([]byte{0xAB}, 100), snap)
}

func TestOpen_CapacityMismatchFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")

	r1, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 1024})
	require.NoError(t, err)
	require.NoError(t, r1.Close())

	_, err = ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 2048})
	require.ErrorIs(t, err, ringlog.ErrCapacityMismatch)
}

func TestOpen_CorruptedMagicFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")

	r1, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 1024})
	require.NoError(t, err)
	require.NoError(t, r1.Close())

	require.NoError(t, corruptMagic(path))

	_, err = ringlog.Open(ringlog.Options{Path: path})
	require.ErrorIs(t, err, ringlog.ErrCorrupted)
}

func TestWrite_RejectsOversizedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")

	r, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 16})
	require.NoError(t, err)
	defer r.Close()

	err = r.Write(make([]byte, 17))
	require.ErrorIs(t, err, ringlog.ErrOversizedWrite)
}

func TestWriteSnapshot_RoundTripWithWrap(t *testing.T) {
	// Seed case 3: capacity 1024, three 512-byte blocks of 0xAA.
	path := filepath.Join(t.TempDir(), "ring.bin")

	r, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 1024})
	require.NoError(t, err)
	defer r.Close()

	block := bytes.Repeat([]byte{0xAA}, 512)

	for range 3 {
		require.NoError(t, r.Write(block))
	}

	require.Equal(t, uint64(1536), r.WriteHead())

	snap := r.Snapshot()
	require.LessOrEqual(t, len(snap), 1024)

	for _, b := range snap {
		require.Equal(t, byte(0xAA), b)
	}
}

func TestTap_Downsampling(t *testing.T) {
	// Seed case 4: stride 3 over 10 frames yields frames 0,3,6,9.
	path := filepath.Join(t.TempDir(), "ring.bin")

	r, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 10 << 20})
	require.NoError(t, err)
	defer r.Close()

	tap, err := r.RegisterTap("preview", 3)
	require.NoError(t, err)

	for i := range 10 {
		require.NoError(t, r.Write([]byte(fmt.Sprintf("frame_%d", i))))
	}

	var got []string

	for range 4 {
		select {
		case frame := <-tap.Frames():
			got = append(got, string(frame))
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for tap frame")
		}
	}

	require.Equal(t, []string{"frame_0", "frame_3", "frame_6", "frame_9"}, got)
}

func TestTap_DuplicateIDRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")

	r, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 1024})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.RegisterTap("a", 1)
	require.NoError(t, err)

	_, err = r.RegisterTap("a", 1)
	require.ErrorIs(t, err, ringlog.ErrTapExists)
}

func TestTap_BackpressureSafety(t *testing.T) {
	// Seed case 5: stride 1, no consumption, 50 writes; at most 16 frames
	// accumulate, the writer completes promptly.
	path := filepath.Join(t.TempDir(), "ring.bin")

	r, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 10 << 20})
	require.NoError(t, err)
	defer r.Close()

	tap, err := r.RegisterTap("slow", 1)
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := range 50 {
			require.NoError(t, r.Write([]byte(fmt.Sprintf("frame_%d", i))))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("writer blocked on a full tap queue")
	}

	require.LessOrEqual(t, len(tap.Frames()), 16)
}

func TestUnregisterTap_MissingIDIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")

	r, err := ringlog.Open(ringlog.Options{Path: path, CapacityBytes: 1024})
	require.NoError(t, err)
	defer r.Close()

	require.False(t, r.UnregisterTap("nope"))
}
