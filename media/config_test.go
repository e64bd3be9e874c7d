package media

import (
	"testing"

	"mediakit/disk"
	"mediakit/style"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := ResolveConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Disk)
	assert.Equal(t, "/system/{class}/{media}/{id}/{style}/{filename}", cfg.URL)
	assert.Equal(t, disk.Public, cfg.Visibility)
	assert.Equal(t, 90, cfg.Quality)
	assert.Equal(t, "original", cfg.DefaultStyle)
	assert.Contains(t, cfg.Styles, "original")
}

func TestResolveConfigLaterLayersWin(t *testing.T) {
	cfg, err := ResolveConfig(
		Layer{"image_quality": 75, "prefix_url": "https://a.example.com"},
		Layer{"image_quality": 60},
	)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Quality)
	assert.Equal(t, "https://a.example.com", cfg.PrefixURL)
}

func TestResolveConfigImplicitOriginalStyle(t *testing.T) {
	cfg, err := ResolveConfig(Layer{
		"styles": map[string]string{"thumb": "100x100#", "large": "800x600"},
	})
	require.NoError(t, err)

	require.Contains(t, cfg.Styles, "original")
	assert.True(t, cfg.Styles["original"].IsPassthrough())
	assert.Len(t, cfg.Styles, 3)
}

func TestResolveConfigExplicitOriginalWins(t *testing.T) {
	cfg, err := ResolveConfig(Layer{
		"styles": map[string]style.Style{"original": {Dimensions: "1920x1080?"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "1920x1080?", cfg.Styles["original"].Dimensions)
}

func TestResolveConfigStyleForms(t *testing.T) {
	cfg, err := ResolveConfig(Layer{
		"styles": map[string]any{"medium": "400x400"},
	})
	require.NoError(t, err)
	assert.Equal(t, "400x400", cfg.Styles["medium"].Dimensions)

	_, err = ResolveConfig(Layer{
		"styles": map[string]any{"medium": 400},
	})
	require.ErrorIs(t, err, ErrConfig)

	_, err = ResolveConfig(Layer{"styles": "400x400"})
	require.ErrorIs(t, err, ErrConfig)
}

func TestResolveConfigRejectsUnknownKey(t *testing.T) {
	_, err := ResolveConfig(Layer{"keep_old_filez": true})
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "keep_old_filez")
}

func TestResolveConfigRejectsMissingIDToken(t *testing.T) {
	_, err := ResolveConfig(Layer{"url": "/system/{class}/{style}/{filename}"})
	require.ErrorIs(t, err, ErrConfig)
}

func TestResolveConfigRejectsBadTypes(t *testing.T) {
	_, err := ResolveConfig(Layer{"queueable": "yes"})
	require.ErrorIs(t, err, ErrConfig)

	_, err = ResolveConfig(Layer{"url": 13})
	require.ErrorIs(t, err, ErrConfig)

	_, err = ResolveConfig(Layer{"image_quality": "high"})
	require.ErrorIs(t, err, ErrConfig)
}

func TestResolveConfigVisibility(t *testing.T) {
	cfg, err := ResolveConfig(Layer{"visibility": "private"})
	require.NoError(t, err)
	assert.Equal(t, disk.Private, cfg.Visibility)

	_, err = ResolveConfig(Layer{"visibility": "hidden"})
	require.ErrorIs(t, err, ErrConfig)
}

func TestResolveConfigInterpolateOverrides(t *testing.T) {
	cfg, err := ResolveConfig(Layer{
		"interpolate": map[string]any{"tenant": "acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.Interpolate["tenant"])

	_, err = ResolveConfig(Layer{"interpolate": map[string]any{"tenant": 1}})
	require.ErrorIs(t, err, ErrConfig)
}

func TestResolveConfigNumericCoercion(t *testing.T) {
	// Values decoded from JSON or YAML arrive as float64.
	cfg, err := ResolveConfig(Layer{"image_quality": float64(85)})
	require.NoError(t, err)
	assert.Equal(t, 85, cfg.Quality)
}
