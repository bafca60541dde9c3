package reconcile

import (
	"errors"
	"fmt"

	"parcelhub/internal/models"
)

var ErrInvalidItem = errors.New("invalid line item")

// Update rewrites the persisted row ID with the incoming item's fields.
type Update struct {
	ID   uint
	Item models.Product
}

// Plan is the set of row operations that makes the persisted line items of a
// package equal to the incoming list. Pairing is positional: incoming item i
// updates persisted item i, items beyond the persisted length are inserted,
// persisted rows beyond the incoming length are deleted.
type Plan struct {
	Updates []Update
	Inserts []models.Product
	Deletes []uint
}

func (p Plan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Inserts) == 0 && len(p.Deletes) == 0
}

// Build validates every incoming item before emitting a single operation; a
// bad item fails the whole plan so no partial list can ever be applied.
func Build(persisted, incoming []models.Product) (Plan, error) {
	for i, it := range incoming {
		if err := checkItem(it); err != nil {
			return Plan{}, fmt.Errorf("item %d: %w", i, err)
		}
	}

	var p Plan
	for i, it := range incoming {
		if i < len(persisted) {
			p.Updates = append(p.Updates, Update{ID: persisted[i].ID, Item: it})
		} else {
			p.Inserts = append(p.Inserts, it)
		}
	}
	for i := len(incoming); i < len(persisted); i++ {
		p.Deletes = append(p.Deletes, persisted[i].ID)
	}
	return p, nil
}

func checkItem(it models.Product) error {
	switch {
	case it.Weight <= 0:
		return fmt.Errorf("%w: weight", ErrInvalidItem)
	case it.Unit == "":
		return fmt.Errorf("%w: unit", ErrInvalidItem)
	case it.Description == "":
		return fmt.Errorf("%w: description", ErrInvalidItem)
	case it.Value <= 0:
		return fmt.Errorf("%w: value", ErrInvalidItem)
	case it.Store == "":
		return fmt.Errorf("%w: store", ErrInvalidItem)
	}
	return nil
}
