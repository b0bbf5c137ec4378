package model

import "strings"

// PLD is a Physical Location Descriptor, a labeled sub-location of a Building.
type PLD struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Building int    `json:"building"`
}

type PLDInput struct {
	Label    string `json:"label"`
	Building int    `json:"building"`
}

func (in PLDInput) Validate() error {
	if strings.TrimSpace(in.Label) == "" {
		return &ValidationError{Field: "label"}
	}
	if in.Building <= 0 {
		return &ValidationError{Field: "building"}
	}
	return nil
}
