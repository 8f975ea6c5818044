package constants_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/constants"
)

func TestSecretPrefixUsesFirst8HexOfTenantID(t *testing.T) {
	require.Equal(t, "BC_1a2b3c4d_", constants.SecretPrefix("1a2b3c4d-e5f6-7890-abcd-ef0123456789"))
}

func TestNamespacedKeyPrependsPrefix(t *testing.T) {
	require.Equal(t, "BC_1a2b3c4d_max_batch_size", constants.NamespacedKey("1a2b3c4d-e5f6-7890-abcd-ef0123456789", "max_batch_size"))
}

func TestSecretPrefixDiffersAcrossTenants(t *testing.T) {
	a := constants.SecretPrefix("11111111-0000-0000-0000-000000000000")
	b := constants.SecretPrefix("22222222-0000-0000-0000-000000000000")
	require.NotEqual(t, a, b)
}
