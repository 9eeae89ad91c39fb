package mongodb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/database/storetest"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func TestExtractDBName(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"mongodb://localhost:27017/campus_test", "campus_test"},
		{"mongodb://user:pw@host:27017/social?authSource=admin", "social"},
		{"mongodb+srv://cluster.example.net/?retryWrites=true", defaultDBName},
		{"mongodb://localhost:27017", defaultDBName},
		{"::not a uri", defaultDBName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractDBName(tt.uri), tt.uri)
	}
}

// Runs against a disposable server, e.g. TEST_MONGO_URI=mongodb://localhost:27017/campus_test.
// A replica set exercises the transactional comment path, a standalone server the fallback.
func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	suite.Run(t, &storetest.StoreSuite{
		Open: func() (database.Database, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return New(ctx, uri)
		},
	})
}

func TestOrphanedCommentIsCounted(t *testing.T) {
	var kinds []string
	m := &MongoDB{}
	WithWarningRecorder(func(kind string) { kinds = append(kinds, kind) })(m)
	repo := &CommentRepo{mongo: m}

	repo.reportOrphan(&models.Comment{ID: "c1", ProjectID: "p1"}, errors.New("connection reset"))
	assert.Equal(t, []string{OrphanedCommentWarning}, kinds)

	// without a recorder the warning is only logged
	(&CommentRepo{mongo: &MongoDB{}}).reportOrphan(&models.Comment{ID: "c2", ProjectID: "p1"}, errors.New("timeout"))
}
