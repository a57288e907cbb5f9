package migrate

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSource_EveryUpHasDown(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	v, err := src.First()
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	var versions []uint
	for {
		versions = append(versions, v)

		up, _, err := src.ReadUp(v)
		require.NoError(t, err)
		body, err := io.ReadAll(up)
		require.NoError(t, err)
		require.NotEmpty(t, body)
		_ = up.Close()

		down, _, err := src.ReadDown(v)
		require.NoError(t, err, "version %d has no down migration", v)
		_ = down.Close()

		v, err = src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
	}
	require.Equal(t, []uint{1, 2, 3, 4}, versions)
}
