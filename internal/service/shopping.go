package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/repository"
)

// ShoppingListFilename is the attachment name of the exported list
const ShoppingListFilename = "shopping_cart.txt"

// ShoppingListItem is the total amount of one ingredient across the cart
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

type ShoppingListService struct {
	recipes repository.RecipeRepository
}

func NewShoppingListService(recipes repository.RecipeRepository) *ShoppingListService {
	return &ShoppingListService{recipes: recipes}
}

// BuildShoppingList sums the ingredients of every recipe in the user's cart.
// An empty cart yields an empty list.
func (s *ShoppingListService) BuildShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingListItem, error) {
	rows, err := s.recipes.ShoppingRows(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping cart: %w", err)
	}

	items := AggregateShoppingList(rows)
	metrics.ShoppingListItems.Observe(float64(len(items)))
	return items, nil
}

// AggregateShoppingList groups rows by ingredient name and unit, not by id,
// and keeps the first-seen order of each group.
func AggregateShoppingList(rows []repository.ShoppingRow) []ShoppingListItem {
	type key struct{ name, unit string }

	items := make([]ShoppingListItem, 0, len(rows))
	index := make(map[key]int, len(rows))
	for _, row := range rows {
		k := key{row.Name, row.MeasurementUnit}
		if i, ok := index[k]; ok {
			items[i].Amount += row.Amount
			continue
		}
		index[k] = len(items)
		items = append(items, ShoppingListItem{
			Name:            row.Name,
			MeasurementUnit: row.MeasurementUnit,
			Amount:          row.Amount,
		})
	}
	return items
}

// RenderShoppingList formats one "{name} ({unit}) - {amount}" line per item
func RenderShoppingList(items []ShoppingListItem) []byte {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%s (%s) - %d", item.Name, item.MeasurementUnit, item.Amount)
	}
	return []byte(strings.Join(lines, "\n"))
}
