package constants

// SecretPrefix derives the "BC_<first-8-hex>_" namespace for a tenant's
// business constants, matching tenant.Context.SecretPrefix's derivation
// (the UUID string's first 8 characters, which are exactly its leading hex
// group) so the same rule governs both env-var secrets and
// constants-backend keys (spec.md §6.1).
func SecretPrefix(tenantID string) string {
	id := tenantID
	if len(id) > 8 {
		id = id[:8]
	}
	return "BC_" + id + "_"
}

// NamespacedKey applies a tenant's prefix to a bare constant name.
func NamespacedKey(tenantID, name string) string {
	return SecretPrefix(tenantID) + name
}
