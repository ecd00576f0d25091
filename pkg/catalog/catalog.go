// Package catalog loads the categories and accounts the entry forms offer.
//
// A catalog file is YAML:
//
//	expenses:
//	  - id: "1"
//	    name: Dining Out
//	    children:
//	      - {id: "2", name: Lunch}
//	incomes:
//	  - {id: "10", name: Employer}
//	accounts:
//	  - {id: account-1, name: UOB, currency: SGD}
//
// A missing file yields Default(); a malformed one is an error.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/tally/pkg/model"
	"github.com/vanderheijden86/tally/pkg/tree"
)

// Catalog is the reference data behind the forms.
type Catalog struct {
	Expenses []tree.Node     `yaml:"expenses"`
	Incomes  []tree.Node     `yaml:"incomes"`
	Accounts []model.Account `yaml:"accounts"`
}

// Default returns the built-in catalog used when no file is configured.
func Default() Catalog {
	return Catalog{
		Expenses: []tree.Node{
			tree.Folder("1", "Dining Out",
				tree.Leaf("2", "Lunch"),
				tree.Leaf("3", "Breakfast"),
				tree.Leaf("5", "Dinner"),
			),
			tree.Folder("6", "Entertainment",
				tree.Leaf("7", "Cinema"),
				tree.Leaf("8", "Arcade"),
			),
			tree.Folder("12", "Living",
				tree.Leaf("13", "Rent"),
				tree.Leaf("14", "Phone Bill"),
			),
		},
		Incomes: []tree.Node{
			tree.Leaf("10", "Employer"),
			tree.Leaf("11", "Stocks"),
		},
		Accounts: []model.Account{
			{ID: "account-1", Name: "UOB", Currency: "SGD"},
			{ID: "account-2", Name: "DBS", Currency: "SGD"},
			{ID: "account-3", Name: "OCBC", Currency: "SGD"},
		},
	}
}

// LoadFrom reads a catalog file. Returns Default if the file doesn't exist.
func LoadFrom(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return cat, nil
}

// SaveTo writes the catalog as YAML.
func SaveTo(cat Catalog, path string) error {
	data, err := yaml.Marshal(cat)
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}

// Validate checks both trees and the account list for empty or repeated ids.
func (c Catalog) Validate() error {
	var errs []error
	if err := tree.Validate(c.Expenses); err != nil {
		errs = append(errs, fmt.Errorf("expenses: %w", err))
	}
	if err := tree.Validate(c.Incomes); err != nil {
		errs = append(errs, fmt.Errorf("incomes: %w", err))
	}
	seen := make(map[string]bool)
	for _, a := range c.Accounts {
		switch {
		case a.ID == "":
			errs = append(errs, fmt.Errorf("account %q has an empty id", a.Name))
		case seen[a.ID]:
			errs = append(errs, fmt.Errorf("duplicate account id %q", a.ID))
		}
		seen[a.ID] = true
	}
	return errors.Join(errs...)
}

// Account returns the account with the given id.
func (c Catalog) Account(id string) (model.Account, bool) {
	for _, a := range c.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return model.Account{}, false
}

// Item is one pickable entry of a Group.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group is a heading with the items listed under it.
type Group struct {
	ID      string
	Heading string
	Items   []Item
}

// CategoryGroups turns each selectable top-level expense folder into a group
// of its selectable leaves. Deeper folders are flattened into their top-level
// group; disabled branches are skipped.
func (c Catalog) CategoryGroups() []Group {
	var groups []Group
	for _, root := range c.Expenses {
		if !root.IsSelectable() || !root.IsFolder() {
			continue
		}
		g := Group{ID: root.ID, Heading: root.Name}
		tree.Walk(root.Children, func(n tree.Node, _ int) bool {
			if !n.IsSelectable() {
				return false
			}
			if !n.IsFolder() {
				g.Items = append(g.Items, Item{ID: n.ID, Name: n.Name})
			}
			return true
		})
		if len(g.Items) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// AccountGroup lists the accounts as a single untitled group.
func (c Catalog) AccountGroup() Group {
	g := Group{ID: "accounts"}
	for _, a := range c.Accounts {
		g.Items = append(g.Items, Item{ID: a.ID, Name: a.Name})
	}
	return g
}

// Subcategories flattens CategoryGroups into suggestion candidates.
func (c Catalog) Subcategories() []Item {
	var items []Item
	for _, g := range c.CategoryGroups() {
		items = append(items, g.Items...)
	}
	return items
}

// GroupOf returns the group holding item id.
func GroupOf(groups []Group, id string) (Group, Item, bool) {
	for _, g := range groups {
		for _, it := range g.Items {
			if it.ID == id {
				return g, it, true
			}
		}
	}
	return Group{}, Item{}, false
}
