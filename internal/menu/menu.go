// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package menu

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
)

//go:embed catalog.json
var defaultCatalog []byte

var ErrEmptyCatalog = errors.New("menu catalog contains no chefs")

type Review struct {
	UserName string  `json:"user_name"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

type ChefRating struct {
	Rating  float64  `json:"rating"`
	Reviews []Review `json:"reviews"`
}

type Nutrition struct {
	Calories      int `json:"calories"`
	Proteins      int `json:"proteins"`
	Fats          int `json:"fats"`
	Carbohydrates int `json:"carbohydrates"`
}

type Ingredient struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type Dish struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Description         string       `json:"description"`
	Chef                string       `json:"chef,omitempty"`
	Rating              float64      `json:"rating"`
	Nutrition           Nutrition    `json:"nutrition"`
	OptionalIngredients []Ingredient `json:"optional_ingredients"`
	PortionSize         string       `json:"portion_size"`
	Price               int          `json:"price"`
	ImageURL            string       `json:"image_url"`
	DeliveryTimeMin     int          `json:"delivery_time_min"`
	DeliveryTimeMax     int          `json:"delivery_time_max"`
}

type Chef struct {
	Name            string     `json:"name"`
	Surname         string     `json:"surname"`
	Description     string     `json:"description"`
	Rating          ChefRating `json:"rating"`
	YearsExperience int        `json:"years_experience"`
	Dishes          []Dish     `json:"dishes"`
}

func (c Chef) FullName() string {
	return c.Name + " " + c.Surname
}

// Catalog is the read-only list of chefs and their dishes.
type Catalog struct {
	chefs []Chef
}

// Load reads a JSON catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	var raw struct {
		Chefs []Chef `json:"chefs"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode menu catalog: %w", err)
	}
	if len(raw.Chefs) == 0 {
		return nil, ErrEmptyCatalog
	}

	ids := make(map[string]struct{})
	for i := range raw.Chefs {
		chef := &raw.Chefs[i]
		for j := range chef.Dishes {
			dish := &chef.Dishes[j]
			if _, ok := ids[dish.ID]; ok {
				return nil, fmt.Errorf("duplicate dish id %q", dish.ID)
			}
			ids[dish.ID] = struct{}{}
			if dish.DeliveryTimeMin > dish.DeliveryTimeMax {
				return nil, fmt.Errorf("dish %q: delivery time window %d-%d is invalid", dish.ID,
					dish.DeliveryTimeMin, dish.DeliveryTimeMax)
			}
			dish.Chef = chef.FullName()
		}
	}
	return &Catalog{chefs: raw.Chefs}, nil
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// Chefs returns all chefs in catalog order.
func (c *Catalog) Chefs() []Chef {
	return slices.Clone(c.chefs)
}

// BestDishes returns the dishes of all chefs ordered by rating, best first. Dishes with the
// same rating keep their catalog order.
func (c *Catalog) BestDishes() []Dish {
	var dishes []Dish
	for _, chef := range c.chefs {
		dishes = append(dishes, chef.Dishes...)
	}
	slices.SortStableFunc(dishes, func(a, b Dish) int {
		switch {
		case a.Rating > b.Rating:
			return -1
		case a.Rating < b.Rating:
			return 1
		default:
			return 0
		}
	})
	return dishes
}
