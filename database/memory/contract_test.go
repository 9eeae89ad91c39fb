package memory

import (
	"testing"

	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/database/storetest"
	"github.com/stretchr/testify/suite"
)

func TestStoreContract(t *testing.T) {
	suite.Run(t, &storetest.StoreSuite{
		Open: func() (database.Database, error) { return New().Database(), nil },
	})
}
