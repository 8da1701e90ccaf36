package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskRoundTrip(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := NewKey("banners", ".png")

	require.NoError(t, d.Save(ctx, key, "image/png", strings.NewReader("png payload")))

	rc, ct, err := d.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "png payload", string(got))
	require.Equal(t, "image/png", ct)
}

func TestDiskOpenMissing(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	_, _, err = d.Open(context.Background(), "audio/does-not-exist.mp3")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDiskRemove(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := NewKey("banners", ".png")
	require.NoError(t, d.Save(ctx, key, "image/png", strings.NewReader("png")))

	require.NoError(t, d.Remove(ctx, key))
	_, _, err = d.Open(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	// Removing an already-removed key is fine.
	require.NoError(t, d.Remove(ctx, key))
}

func TestDiskRejectsTraversal(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"../escape", "/etc/passwd", "a/../../b", "."} {
		t.Run(key, func(t *testing.T) {
			require.Error(t, d.Save(ctx, key, "text/plain", strings.NewReader("x")))
			_, _, err := d.Open(ctx, key)
			require.Error(t, err)
		})
	}
}

func TestNewKey(t *testing.T) {
	k := NewKey("audio", ".mp3")
	require.True(t, strings.HasPrefix(k, "audio/"))
	require.True(t, strings.HasSuffix(k, ".mp3"))
	require.NotEqual(t, k, NewKey("audio", ".mp3"))
}

func TestExtensionForContentType(t *testing.T) {
	require.Equal(t, ".mp3", ExtensionForContentType("audio/mpeg"))
	require.Equal(t, ".png", ExtensionForContentType("image/png"))
	require.Equal(t, "", ExtensionForContentType("application/x-unknown"))
}
