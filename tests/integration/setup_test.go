package integration

import (
	"testing"

	"github.com/dimitrije/pluginhub-api/tests/testutil"
)

func setupTest(t *testing.T) *testutil.TestDB {
	t.Helper()
	return testutil.SetupTestDB(t)
}
