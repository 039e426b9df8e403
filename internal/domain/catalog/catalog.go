package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mamadbah2/kitledger/internal/domain/models"
)

// ErrUnknownEquipment indicates the equipment is not part of the catalog.
var ErrUnknownEquipment = errors.New("unknown equipment")

const (
	Illumina models.Equipment = "Illumina"
	PacBio   models.Equipment = "PacBio"
)

// Catalog maps each equipment to the ordered kit names that seed its ledger.
type Catalog struct {
	order []models.Equipment
	kits  map[models.Equipment][]string
}

// Default returns the built-in sequencer catalog.
func Default() *Catalog {
	c := New()
	c.Register(Illumina, "P1 300", "P1 600", "P2 200", "P2 300", "P2 600", "P3 200", "P3 300", "P4 200", "P4 300", "Next500")
	c.Register(PacBio, "SMRT Cell 8M", "Sequel Binding Kit", "Sequencing Primer", "Clean-up Beads", "MagBeads", "DNA Prep Kit")
	return c
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{kits: make(map[models.Equipment][]string)}
}

// Register adds or replaces an equipment entry. Duplicate kit names keep their first position.
func (c *Catalog) Register(equipment models.Equipment, kits ...string) {
	if _, exists := c.kits[equipment]; !exists {
		c.order = append(c.order, equipment)
	}

	seen := make(map[string]struct{}, len(kits))
	list := make([]string, 0, len(kits))
	for _, kit := range kits {
		if _, dup := seen[kit]; dup {
			continue
		}
		seen[kit] = struct{}{}
		list = append(list, kit)
	}
	c.kits[equipment] = list
}

// Equipments lists the catalog equipment in registration order.
func (c *Catalog) Equipments() []models.Equipment {
	out := make([]models.Equipment, len(c.order))
	copy(out, c.order)
	return out
}

// Kits returns a copy of the kit names registered for equipment.
func (c *Catalog) Kits(equipment models.Equipment) ([]string, error) {
	kits, ok := c.kits[equipment]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEquipment, equipment)
	}
	out := make([]string, len(kits))
	copy(out, kits)
	return out, nil
}

// Resolve maps a user supplied name onto a catalog equipment, ignoring case.
func (c *Catalog) Resolve(name string) (models.Equipment, error) {
	name = strings.TrimSpace(name)
	for _, equipment := range c.order {
		if strings.EqualFold(string(equipment), name) {
			return equipment, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownEquipment, name)
}

// Seed builds the zero-quantity stock table for equipment in catalog order.
func (c *Catalog) Seed(equipment models.Equipment) (models.StockTable, error) {
	kits, err := c.Kits(equipment)
	if err != nil {
		return models.StockTable{}, err
	}

	table := models.StockTable{Equipment: equipment, Entries: make([]models.StockEntry, 0, len(kits))}
	for _, kit := range kits {
		table.Entries = append(table.Entries, models.StockEntry{Kit: kit})
	}
	return table, nil
}
