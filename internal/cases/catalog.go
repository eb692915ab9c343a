package cases

import (
	"fmt"

	"caseopener/internal/model"
)

// RarityWeights holds the relative drop weight per rarity tier. The scale is
// arbitrary (weights are relative), chosen so every tier is a whole number:
// a common drop is 600x as likely as a unique one.
var RarityWeights = map[string]int64{
	model.RarityCommon:          1200,
	model.RarityUncommon:        500,
	model.RarityRare:            200,
	model.RarityMythical:        80,
	model.RarityLegendary:       30,
	model.RarityAncient:         15,
	model.RarityExceedinglyRare: 8,
	model.RarityImmortal:        4,
	model.RarityUnique:          2,
}

// RarityValueBase is the catalog value assigned to an item of each tier.
var RarityValueBase = map[string]int64{
	model.RarityCommon:          5,
	model.RarityUncommon:        15,
	model.RarityRare:            60,
	model.RarityMythical:        140,
	model.RarityLegendary:       400,
	model.RarityAncient:         750,
	model.RarityExceedinglyRare: 1100,
	model.RarityImmortal:        2000,
	model.RarityUnique:          3500,
}

// CatalogDef describes a case before its pool is materialized from the item
// catalog: which rarity tiers it admits and at what price.
type CatalogDef struct {
	ID       int64
	Name     string
	Price    int64
	Rarities []string
}

// alphaRarities and omegaRarities are the tier sets of the two case lines.
var (
	alphaRarities = []string{
		model.RarityCommon, model.RarityUncommon, model.RarityRare,
		model.RarityMythical, model.RarityLegendary,
	}
	omegaRarities = []string{
		model.RarityUncommon, model.RarityRare, model.RarityMythical,
		model.RarityLegendary, model.RarityAncient,
		model.RarityExceedinglyRare, model.RarityImmortal,
	}
)

// CatalogDefs returns the built-in case line: Alpha Case 1-5 at increasing
// prices over the lower tiers, Omega Case 1-5 over the higher tiers.
func CatalogDefs() []CatalogDef {
	defs := make([]CatalogDef, 0, 10)
	for i := int64(0); i < 5; i++ {
		defs = append(defs, CatalogDef{
			ID:       i + 1,
			Name:     fmt.Sprintf("Alpha Case %d", i+1),
			Price:    (i + 1) * 25,
			Rarities: alphaRarities,
		})
	}
	for i := int64(0); i < 5; i++ {
		defs = append(defs, CatalogDef{
			ID:       i + 6,
			Name:     fmt.Sprintf("Omega Case %d", i+1),
			Price:    200 + i*35,
			Rarities: omegaRarities,
		})
	}
	return defs
}

// BuildCase materializes a case definition against the item catalog: every
// item whose rarity the definition admits becomes a pool entry weighted by
// its tier. Items keep catalog order so the pool's entry order, and with it
// the draw tie-break, is deterministic.
func BuildCase(def CatalogDef, items []model.Item) (*Case, error) {
	admitted := make(map[string]bool, len(def.Rarities))
	for _, r := range def.Rarities {
		admitted[r] = true
	}

	var entries []Entry
	for _, it := range items {
		if !admitted[it.Rarity] {
			continue
		}
		w, ok := RarityWeights[it.Rarity]
		if !ok {
			return nil, fmt.Errorf("%w: item %d has unknown rarity %q",
				ErrInvalidDefinition, it.ID, it.Rarity)
		}
		entries = append(entries, Entry{ItemID: it.ID, Weight: w, Rarity: it.Rarity})
	}

	pool, err := NewPool(entries)
	if err != nil {
		return nil, fmt.Errorf("case %d (%s): %w", def.ID, def.Name, err)
	}

	return &Case{
		ID:    def.ID,
		Name:  def.Name,
		Price: def.Price,
		Pool:  pool,
	}, nil
}

// SeedItems is the starter item catalog, one representative item per tier.
// A real deployment replaces this with an ingested asset catalog; values
// follow RarityValueBase.
func SeedItems() []model.Item {
	defs := []struct {
		name   string
		rarity string
	}{
		{"Rusty Pistol", model.RarityCommon},
		{"Worn SMG", model.RarityUncommon},
		{"Shiny Rifle", model.RarityRare},
		{"Mythic Blade", model.RarityMythical},
		{"Dragon Relic", model.RarityLegendary},
		{"Ancient Warhammer", model.RarityAncient},
		{"Phantom Karambit", model.RarityExceedinglyRare},
		{"Immortal Aegis", model.RarityImmortal},
		{"Singularity Edge", model.RarityUnique},
	}

	items := make([]model.Item, 0, len(defs))
	for _, d := range defs {
		items = append(items, model.Item{
			Name:   d.name,
			Value:  RarityValueBase[d.rarity],
			Rarity: d.rarity,
		})
	}
	return items
}
