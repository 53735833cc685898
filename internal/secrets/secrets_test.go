package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSecretPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("BOT_TOKEN_FILE", path)

	value, err := GetSecret("BOT_TOKEN", "")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestGetSecretFallbacks(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-env")
	value, err := GetSecret("BOT_TOKEN", "default")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	assert.Equal(t, "default", GetOptionalSecret("UNSET_SECRET_FOR_TEST", "default"))
}

func TestGetOptionalSecretMissingFile(t *testing.T) {
	t.Setenv("BOT_TOKEN_FILE", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, "fallback", GetOptionalSecret("BOT_TOKEN", "fallback"))
}
