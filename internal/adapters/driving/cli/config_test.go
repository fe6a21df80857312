package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tollgate/internal/adapters/driven/config/file"
)

func configServices(t *testing.T) *Services {
	t.Helper()
	cfg, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)
	svc := testServices(t)
	svc.Config = cfg
	return svc
}

func TestConfigCmd_Path(t *testing.T) {
	svc := configServices(t)
	setupServices(t, svc)

	out, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, svc.Config.Path()+"\n", out)
}

func TestConfigCmd_SetAndGet(t *testing.T) {
	svc := configServices(t)
	setupServices(t, svc)

	out, err := run(t, "config", "set", "pricing.day", "75")
	require.NoError(t, err)
	assert.Equal(t, "pricing.day = 75\n", out)
	assert.Equal(t, 75, svc.Config.GetInt("pricing.day"))

	out, err = run(t, "config", "get", "pricing.day")
	require.NoError(t, err)
	assert.Equal(t, "75\n", out)

	_, err = run(t, "config", "set", "sweeper.enabled", "false")
	require.NoError(t, err)
	_, ok := svc.Config.Get("sweeper.enabled")
	assert.True(t, ok)
	assert.False(t, svc.Config.GetBool("sweeper.enabled"))
}

func TestConfigCmd_SetList(t *testing.T) {
	svc := configServices(t)
	setupServices(t, svc)

	_, err := run(t, "config", "set", "operators.privileged", "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, svc.Config.GetStringSlice("operators.privileged"))

	_, err = run(t, "config", "set", "--list", "operators.privileged", "carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, svc.Config.GetStringSlice("operators.privileged"))
}

func TestConfigCmd_GetAll(t *testing.T) {
	svc := configServices(t)
	setupServices(t, svc)

	out, err := run(t, "config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "has no settings.")

	_, err = run(t, "config", "set", "metrics.addr", ":9090")
	require.NoError(t, err)

	out, err = run(t, "config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "metrics.addr")
	assert.Contains(t, out, ":9090")
}

func TestConfigCmd_GetMissing(t *testing.T) {
	setupServices(t, configServices(t))

	_, err := run(t, "config", "get", "nope")
	assert.EqualError(t, err, "nope is not set")
}

func TestConfigCmd_NotAvailable(t *testing.T) {
	setupServices(t, testServices(t))

	_, err := run(t, "config", "path")
	assert.EqualError(t, err, "configuration not available")
}

func TestParseConfigValue(t *testing.T) {
	assert.Equal(t, int64(10), parseConfigValue("10"))
	assert.Equal(t, true, parseConfigValue("true"))
	assert.Equal(t, "5m", parseConfigValue("5m"))
}
