package model

import "strings"

type Building struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

type BuildingInput struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

func (in BuildingInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name"}
	}
	return nil
}
