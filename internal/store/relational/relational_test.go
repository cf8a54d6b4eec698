package relational_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arthub/backend/internal/database"
	"github.com/arthub/backend/internal/store"
	"github.com/arthub/backend/internal/store/relational"
	"github.com/arthub/backend/internal/store/storetest"
)

func openStore(t *testing.T) store.Store {
	db, err := database.ConnectSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	st := relational.New(db)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, openStore)
}
