package locale_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/locale"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		cfg, err := locale.New("en", "zh", "en")
		require.NoError(t, err)
		require.Equal(t, "en", cfg.DefaultLocale())
		require.Equal(t, []string{"en", "zh"}, cfg.Supported())
	})

	t.Run("default must be supported", func(t *testing.T) {
		t.Parallel()
		_, err := locale.New("fr", "en", "zh")
		require.ErrorIs(t, err, locale.ErrDefaultNotSupported)
	})

	t.Run("requires locales", func(t *testing.T) {
		t.Parallel()
		_, err := locale.New("en")
		require.ErrorIs(t, err, locale.ErrNoLocales)
	})

	t.Run("rejects tags with separators", func(t *testing.T) {
		t.Parallel()
		for _, tag := range []string{"", "en-US", "en,zh", "en;q=1"} {
			_, err := locale.New("en", "en", tag)
			require.ErrorIs(t, err, locale.ErrInvalidLocale, tag)
		}
	})

	t.Run("rejects malformed tags", func(t *testing.T) {
		t.Parallel()
		_, err := locale.New("en", "en", "x!")
		require.ErrorIs(t, err, locale.ErrInvalidLocale)
	})
}

func TestMustNewPanics(t *testing.T) {
	t.Parallel()
	require.Panics(t, func() { locale.MustNew("de", "en") })
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	cfg := locale.Default()
	require.True(t, cfg.IsSupported("en"))
	require.True(t, cfg.IsSupported("zh"))
	require.False(t, cfg.IsSupported("EN"))
	require.False(t, cfg.IsSupported(""))
	require.False(t, cfg.IsSupported("fr"))
}

func TestSupportedReturnsCopy(t *testing.T) {
	t.Parallel()

	cfg := locale.Default()
	list := cfg.Supported()
	list[0] = "xx"
	require.Equal(t, []string{"en", "zh"}, cfg.Supported())
}
