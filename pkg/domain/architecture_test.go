package domain_test

import (
	"testing"

	"bloodbank/testutil"
)

// Storage backends and adapters depend on domain, never the other way round.
func TestDomainImportsStandardLibraryOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.NonStdlibImport, "domain must only use the standard library")
}
