package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

// pngDataURI is a data URI holding just the PNG signature, enough for content sniffing
const pngDataURI = "data:image/png;base64,iVBORw0KGgo="

type memoryImageStore struct {
	mu    sync.Mutex
	saved [][]byte
}

func (s *memoryImageStore) Save(_ context.Context, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, data)
	return "https://cdn.example.com/recipes/" + uuid.NewString() + "?type=" + contentType, nil
}

type fixture struct {
	db       *gorm.DB
	stores   service.Stores
	images   *memoryImageStore
	recipes  *service.RecipeService
	author   *models.User
	reader   *models.User
	lunch    *models.Tag
	dinner   *models.Tag
	eggs     *models.Ingredient
	flour    *models.Ingredient
	eggsInG  *models.Ingredient
	eggsCopy *models.Ingredient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testhelpers.SetupSQLite(t)
	stores := service.NewStores(db)
	images := &memoryImageStore{}
	return &fixture{
		db:       db,
		stores:   stores,
		images:   images,
		recipes:  service.NewRecipeService(stores, images),
		author:   testhelpers.CreateUser(t, db, "author"),
		reader:   testhelpers.CreateUser(t, db, "reader"),
		lunch:    testhelpers.CreateTag(t, db, "lunch"),
		dinner:   testhelpers.CreateTag(t, db, "dinner"),
		eggs:     testhelpers.CreateIngredient(t, db, "eggs", "pcs"),
		flour:    testhelpers.CreateIngredient(t, db, "flour", "g"),
		eggsInG:  testhelpers.CreateIngredient(t, db, "eggs", "g"),
		eggsCopy: testhelpers.CreateIngredient(t, db, "eggs", "pcs"),
	}
}

// writeRequest builds a valid recipe request using the given ingredient amounts
func (f *fixture) writeRequest(name string, tags []uint, amounts ...types.IngredientAmountRequest) *types.RecipeWriteRequest {
	return &types.RecipeWriteRequest{
		Name:        name,
		Text:        "Whisk and fry",
		CookingTime: 10,
		Tags:        tags,
		Ingredients: amounts,
		Image:       "https://example.com/" + name + ".png",
	}
}

func amount(id uint, n int) types.IngredientAmountRequest {
	return types.IngredientAmountRequest{ID: id, Amount: n}
}
