package otlpexport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTLSConfig_Validate(t *testing.T) {
	t.Run("insecure with nothing set is valid", func(t *testing.T) {
		err := TLSConfig{Insecure: true}.Validate()
		assert.NoError(t, err)
	})

	t.Run("client cert without client key is rejected", func(t *testing.T) {
		err := TLSConfig{ClientCertFile: "cert.pem"}.Validate()
		require.Error(t, err)
		assert.ErrorContains(t, err, "config_invalid")
	})

	t.Run("client key without client cert is rejected", func(t *testing.T) {
		err := TLSConfig{ClientKeyFile: "key.pem"}.Validate()
		require.Error(t, err)
		assert.ErrorContains(t, err, "config_invalid")
	})

	t.Run("referenced file must exist", func(t *testing.T) {
		err := TLSConfig{CACertFile: filepath.Join(t.TempDir(), "does-not-exist.pem")}.Validate()
		require.Error(t, err)
		assert.ErrorContains(t, err, "config_invalid")
	})

	t.Run("both cert and key present and readable is valid", func(t *testing.T) {
		dir := t.TempDir()
		certPath := filepath.Join(dir, "cert.pem")
		keyPath := filepath.Join(dir, "key.pem")
		require.NoError(t, os.WriteFile(certPath, []byte("cert"), 0o600))
		require.NoError(t, os.WriteFile(keyPath, []byte("key"), 0o600))

		err := TLSConfig{ClientCertFile: certPath, ClientKeyFile: keyPath}.Validate()
		assert.NoError(t, err)
	})
}
