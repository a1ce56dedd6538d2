package pantry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	domain "github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/infrastructure/persistence/memory"
	"github.com/spicesync/spicesync/internal/ports/outbound"
	"github.com/spicesync/spicesync/test/testutils"
)

type PantryServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	service *Service
	factory *testutils.IngredientFactory
}

func (s *PantryServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.service = NewService(s.store, zaptest.NewLogger(s.T()))
	s.factory = testutils.NewIngredientFactory(time.Now().UnixNano())
}

// persisted decodes the blob currently held by the store.
func (s *PantryServiceTestSuite) persisted() []domain.Ingredient {
	data, err := s.store.Get(s.ctx, "spicesync:pantry")
	s.Require().NoError(err)

	var env envelope
	s.Require().NoError(json.Unmarshal(data, &env))
	s.Require().Equal(schemaVersion, env.SchemaVersion)
	return env.Items
}

func (s *PantryServiceTestSuite) TestLoad() {
	s.Run("MissingBlob_ShouldBeEmptyPantry", func() {
		s.Require().NoError(s.service.Load(s.ctx))
		s.Empty(s.service.Items(s.ctx))
	})

	s.Run("UnreadableBlob_ShouldBeEmptyPantry", func() {
		s.Require().NoError(s.store.Set(s.ctx, "spicesync:pantry", []byte("not json")))
		s.Require().NoError(s.service.Load(s.ctx))
		s.Empty(s.service.Items(s.ctx))
	})

	s.Run("UnknownSchemaVersion_ShouldBeEmptyPantry", func() {
		s.Require().NoError(s.store.Set(s.ctx, "spicesync:pantry",
			[]byte(`{"schema_version":99,"items":[{"id":"`+uuid.NewString()+`","name":"Milk","quantity":"1L","category":"dairy"}]}`)))
		s.Require().NoError(s.service.Load(s.ctx))
		s.Empty(s.service.Items(s.ctx))
	})

	s.Run("RoundTrip_ShouldSurviveRestart", func() {
		items := s.factory.Ingredients(3)
		s.Require().NoError(s.service.Replace(s.ctx, items))

		restarted := NewService(s.store, zaptest.NewLogger(s.T()))
		s.Require().NoError(restarted.Load(s.ctx))
		s.Equal(items, restarted.Items(s.ctx))
	})
}

func (s *PantryServiceTestSuite) TestAdd() {
	s.Run("AppendsInOrderAndPersists", func() {
		first := s.factory.Ingredient()
		second := s.factory.Ingredient()

		s.Require().NoError(s.service.Add(s.ctx, first))
		s.Require().NoError(s.service.Add(s.ctx, second))

		items := s.service.Items(s.ctx)
		s.Require().Len(items, 2)
		s.Equal(first, items[0])
		s.Equal(second, items[1])
		s.Equal(items, s.persisted())
	})

	s.Run("DuplicateID_ShouldRejectWholeBatch", func() {
		item := s.factory.Ingredient()
		s.Require().NoError(s.service.Add(s.ctx, item))

		before := s.service.Items(s.ctx)
		err := s.service.Add(s.ctx, s.factory.Ingredient(), item)
		s.ErrorIs(err, ErrDuplicateID)
		s.Equal(before, s.service.Items(s.ctx))
	})

	s.Run("NoItems_ShouldBeNoOp", func() {
		before := s.service.Items(s.ctx)
		s.Require().NoError(s.service.Add(s.ctx))
		s.Equal(before, s.service.Items(s.ctx))
	})
}

func (s *PantryServiceTestSuite) TestRemove() {
	s.Run("RemovesOnlyTheGivenID", func() {
		items := s.factory.Ingredients(3)
		s.Require().NoError(s.service.Replace(s.ctx, items))

		s.Require().NoError(s.service.Remove(s.ctx, items[1].ID))

		remaining := s.service.Items(s.ctx)
		s.Require().Len(remaining, 2)
		s.Equal(items[0], remaining[0])
		s.Equal(items[2], remaining[1])
		s.Equal(remaining, s.persisted())
	})

	s.Run("AbsentID_ShouldBeNoOp", func() {
		items := s.factory.Ingredients(2)
		s.Require().NoError(s.service.Replace(s.ctx, items))

		s.Require().NoError(s.service.Remove(s.ctx, uuid.New()))
		s.Equal(items, s.service.Items(s.ctx))
	})
}

func (s *PantryServiceTestSuite) TestPersistFailure() {
	s.Run("FailedWrite_ShouldLeaveMemoryUntouched", func() {
		writeErr := errors.New("disk full")
		service := NewService(&testutils.FailingStore{Err: writeErr}, zaptest.NewLogger(s.T()))

		err := service.Add(s.ctx, s.factory.Ingredient())
		s.ErrorIs(err, writeErr)
		s.Empty(service.Items(s.ctx))
	})
}

func (s *PantryServiceTestSuite) TestItemsSnapshot() {
	items := s.factory.Ingredients(2)
	s.Require().NoError(s.service.Replace(s.ctx, items))

	snapshot := s.service.Items(s.ctx)
	snapshot[0].Name = "mutated"

	s.NotEqual("mutated", s.service.Items(s.ctx)[0].Name)
}

func TestPantryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PantryServiceTestSuite))
}

var _ outbound.KeyValueStore = (*memory.Store)(nil)
