package integration

import (
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/stefanm/authgate/internal/auth"
	"github.com/stefanm/authgate/internal/resolver"
	"github.com/stefanm/authgate/internal/store"
	"github.com/stefanm/authgate/tests/testutil"
)

// TestMain runs before all tests in this package
func TestMain(m *testing.M) {
	// Run tests
	code := m.Run()
	os.Exit(code)
}

// setupTest creates a test database and returns cleanup function
func setupTest(t *testing.T) *testutil.TestDB {
	t.Helper()
	return testutil.SetupTestDB(t)
}

// setupResolver wires a resolver against the test database
func setupResolver(tdb *testutil.TestDB) (*resolver.Resolver, *store.UserStore) {
	users := store.NewUserStore(tdb.DB)
	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	return resolver.New(users, passwords), users
}
