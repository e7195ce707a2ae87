package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_MergesEnvOverDefaults verifies that environment values win over
// defaults while defaults fill the fields the environment left empty.
func TestBuild_MergesEnvOverDefaults(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&Config{Store: Store{Dir: "/srv/secrets"}},
		defaultConfig(),
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "/srv/secrets", cfg.Store.Dir)
	assert.Equal(t, "077", cfg.Store.Umask)
	assert.Equal(t, "gpg", cfg.GPG.Binary)
	assert.Equal(t, 45, cfg.Clipboard.ClipTime)
}

// TestBuild_RejectsInvalidUmask verifies that validation fails on a merged
// config whose umask is not an octal mode.
func TestBuild_RejectsInvalidUmask(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&Config{Store: Store{Umask: "99"}},
		defaultConfig(),
	)

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStoreConfigs)
}

// TestBuild_RejectsNonPositiveClipTime verifies that validation fails when
// the merged clip time is not positive.
func TestBuild_RejectsNonPositiveClipTime(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&Config{Clipboard: Clipboard{ClipTime: -1}},
		defaultConfig(),
	)

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidClipboardConfigs)
}

// TestBuild_ExpandsTildeInStoreDir verifies that a leading "~" in the store
// directory is replaced with the user's home directory.
func TestBuild_ExpandsTildeInStoreDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	b := newConfigBuilder()
	b.configs = append(b.configs, defaultConfig())

	cfg, err := b.build()
	require.NoError(t, err)
	assert.NotContains(t, cfg.Store.Dir, "~")
	assert.Contains(t, cfg.Store.Dir, ".password-store")
}

// ── withEnv ───────────────────────────────────────────────────────────────────

// TestWithEnv_ReturnsBuilder verifies the fluent interface.
func TestWithEnv_ReturnsBuilder(t *testing.T) {
	b := newConfigBuilder()
	assert.Same(t, b, b.withEnv())
}

// TestWithEnv_ReadsEnvVars verifies that environment variables are picked up.
func TestWithEnv_ReadsEnvVars(t *testing.T) {
	t.Setenv("PASSWORD_STORE_DIR", "/env/store")
	t.Setenv("PASSWORD_STORE_GPG_BINARY", "gpg2")

	b := newConfigBuilder()
	b.withEnv()

	require.Len(t, b.configs, 1)
	assert.Equal(t, "/env/store", b.configs[0].Store.Dir)
	assert.Equal(t, "gpg2", b.configs[0].GPG.Binary)
}

// TestWithEnv_NoErrorOnEmptyEnv verifies that withEnv does not set b.err
// when no relevant env vars are present.
func TestWithEnv_NoErrorOnEmptyEnv(t *testing.T) {
	clearEnvVars(t)
	b := newConfigBuilder()
	b.withEnv()
	assert.NoError(t, b.err)
}

// ── withDefaults ──────────────────────────────────────────────────────────────

// TestWithDefaults_ReturnsBuilder verifies the fluent interface.
func TestWithDefaults_ReturnsBuilder(t *testing.T) {
	b := newConfigBuilder()
	assert.Same(t, b, b.withDefaults())
}

// TestWithDefaults_AppendsDefaults verifies that withDefaults appends the
// built-in fallback values.
func TestWithDefaults_AppendsDefaults(t *testing.T) {
	b := newConfigBuilder()
	b.withDefaults()

	require.Len(t, b.configs, 1)
	assert.Equal(t, defaultStoreDir, b.configs[0].Store.Dir)
	assert.Equal(t, "gpg", b.configs[0].GPG.Binary)
}

// ── Load ──────────────────────────────────────────────────────────────────────

// TestLoad_DefaultsWhenEnvEmpty verifies that Load falls back to built-in
// defaults when the environment defines nothing.
func TestLoad_DefaultsWhenEnvEmpty(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.Store.Dir, ".password-store")
	assert.Equal(t, "077", cfg.Store.Umask)
	assert.Equal(t, "gpg", cfg.GPG.Binary)
	assert.Equal(t, 45, cfg.Clipboard.ClipTime)
	assert.Empty(t, cfg.Audit.Path)
}

// TestLoad_ReEvaluatesEnvironment verifies that consecutive Load calls
// observe environment changes made in between; Load never caches.
func TestLoad_ReEvaluatesEnvironment(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PASSWORD_STORE_DIR", "/first/store")

	first, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/first/store", first.Store.Dir)

	t.Setenv("PASSWORD_STORE_DIR", "/second/store")

	second, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/second/store", second.Store.Dir)
}

// ── Store.ParseUmask ──────────────────────────────────────────────────────────

// TestParseUmask verifies octal parsing and rejection of malformed masks.
func TestParseUmask(t *testing.T) {
	tests := []struct {
		name    string
		umask   string
		want    uint32
		wantErr bool
	}{
		{name: "default 077", umask: "077", want: 0o077},
		{name: "group readable 027", umask: "027", want: 0o027},
		{name: "zero mask", umask: "0", want: 0},
		{name: "non-octal digits", umask: "99", wantErr: true},
		{name: "not a number", umask: "private", wantErr: true},
		{name: "empty", umask: "", wantErr: true},
		{name: "out of range", umask: "7777", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := Store{Umask: tt.umask}.ParseUmask()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidStoreConfigs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, uint32(mode))
		})
	}
}
