package forecast

import (
	"context"
	"time"
)

// CatalogProvider lists the ingredients to evaluate, in report order.
type CatalogProvider interface {
	ListIngredients(ctx context.Context) ([]Ingredient, error)
}

// EventProvider lists demand events starting within the lookahead window.
type EventProvider interface {
	ListUpcomingEvents(ctx context.Context, windowStart time.Time, windowDays int) ([]Event, error)
}

// StockProvider returns the latest logged stock level for a location/ingredient pair.
// found is false when nothing has ever been logged for the pair.
type StockProvider interface {
	LatestStock(ctx context.Context, locationID int, ingredientID int64) (level int, found bool, err error)
}

// CurrentStock resolves the authoritative stock level, treating absence as zero.
func CurrentStock(ctx context.Context, stock StockProvider, locationID int, ingredientID int64) (int, error) {
	level, found, err := stock.LatestStock(ctx, locationID, ingredientID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return level, nil
}
