package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestEnsureMongoIndexes(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("全コレクションに作成", func(mt *mtest.T) {
		for range mongoIndexOrder {
			mt.AddMockResponses(mtest.CreateSuccessResponse())
		}

		err := EnsureMongoIndexes(context.Background(), mt.DB)
		require.NoError(mt, err)

		var created []string
		for _, ev := range mt.GetAllStartedEvents() {
			if ev.CommandName == "createIndexes" {
				created = append(created, ev.Command.Lookup("createIndexes").StringValue())
			}
		}
		assert.Equal(mt, mongoIndexOrder, created)
	})

	mt.Run("作成失敗", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "not authorized",
			Name:    "Unauthorized",
		}))

		err := EnsureMongoIndexes(context.Background(), mt.DB)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), CollectionListings)
	})
}
