package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ghaggin/naviplus-admin/internal/model"
)

const (
	pathTokenAuth = "/api/token-auth/"
	pathSignup    = "/api/signup/"
	pathBuildings = "/api/buildings/"
	pathPLDs      = "/api/plds/"
)

type tokenResponse struct {
	Token string `json:"token"`
}

// ObtainToken exchanges credentials for a backend token. The session token,
// if any, is not sent.
func (c *Client) ObtainToken(ctx context.Context, creds model.Credentials) (string, error) {
	var resp tokenResponse
	if err := c.doAnon(ctx, http.MethodPost, pathTokenAuth, creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &RequestError{Status: http.StatusOK, Message: "Backend returned no token"}
	}

	return resp.Token, nil
}

// Signup registers an account. Whatever the backend returns on success is
// discarded.
func (c *Client) Signup(ctx context.Context, creds model.Credentials) error {
	return c.doAnon(ctx, http.MethodPost, pathSignup, creds, nil)
}

func (c *Client) ListBuildings(ctx context.Context) ([]model.Building, error) {
	var buildings []model.Building
	if err := c.Do(ctx, http.MethodGet, pathBuildings, nil, &buildings); err != nil {
		return nil, err
	}
	return buildings, nil
}

func (c *Client) CreateBuilding(ctx context.Context, in model.BuildingInput) (model.Building, error) {
	var b model.Building
	err := c.Do(ctx, http.MethodPost, pathBuildings, in, &b)
	return b, err
}

// ListPLDs returns every PLD, or only those of buildingID when it is positive.
func (c *Client) ListPLDs(ctx context.Context, buildingID int) ([]model.PLD, error) {
	path := pathPLDs
	if buildingID > 0 {
		path += "?" + url.Values{"building": {strconv.Itoa(buildingID)}}.Encode()
	}

	var plds []model.PLD
	if err := c.Do(ctx, http.MethodGet, path, nil, &plds); err != nil {
		return nil, err
	}
	return plds, nil
}

func (c *Client) CreatePLD(ctx context.Context, in model.PLDInput) (model.PLD, error) {
	var p model.PLD
	err := c.Do(ctx, http.MethodPost, pathPLDs, in, &p)
	return p, err
}
