package dbctl_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/dbctl"
)

func TestNextPowerOfTwoRoundsUp(t *testing.T) {
	require.Equal(t, 2, dbctl.NextPowerOfTwo(0, 0))
	require.Equal(t, 2, dbctl.NextPowerOfTwo(1, 0))
	require.Equal(t, 4, dbctl.NextPowerOfTwo(3, 0))
	require.Equal(t, 256, dbctl.NextPowerOfTwo(200, 0))
	require.Equal(t, 1024, dbctl.NextPowerOfTwo(1024, 0))
}

func TestNextPowerOfTwoRespectsCap(t *testing.T) {
	require.Equal(t, 65533, dbctl.NextPowerOfTwo(70000, 65533))
}

func TestConfigDSNIncludesParseTime(t *testing.T) {
	cfg := dbctl.Config{Host: "sr-host", Port: 9030, User: "demo", Password: "pw", Database: "t_demo"}
	require.Contains(t, cfg.DSN(), "parseTime=true")
	require.Contains(t, cfg.DSN(), "demo:pw@tcp(sr-host:9030)/t_demo")
}
