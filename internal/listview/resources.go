package listview

import (
	"context"

	"github.com/ghaggin/naviplus-admin/internal/api"
	"github.com/ghaggin/naviplus-admin/internal/middleware"
	"github.com/ghaggin/naviplus-admin/internal/model"
)

type (
	Buildings = Controller[model.Building, model.BuildingInput]
	PLDs      = Controller[model.PLD, struct{}]
)

func NewBuildings(client *api.Client, store middleware.TokenStore) *Buildings {
	return New[model.Building, model.BuildingInput](store, client.ListBuildings, client.CreateBuilding)
}

// NewPLDs lists the PLDs of buildingID, or all of them when it is zero. PLDs
// are created through their own form, not through this list.
func NewPLDs(client *api.Client, store middleware.TokenStore, buildingID int) *PLDs {
	fetch := func(ctx context.Context) ([]model.PLD, error) {
		return client.ListPLDs(ctx, buildingID)
	}
	return New[model.PLD, struct{}](store, fetch, nil)
}
