package laborground

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog lists the collectibles and the drop table of every job. Jobs are
// numbered by their position in the list.
type Catalog struct {
	Consumables []Consumable `yaml:"consumables"`
	Jobs        []Job        `yaml:"jobs"`
}

// Consumable is a collectible minted by the Labor Ground.
type Consumable struct {
	ID   uint64 `yaml:"id"`
	Name string `yaml:"name"`
}

// Job is a Labor Ground job.
type Job struct {
	Name   string `yaml:"name"`
	Supply uint64 `yaml:"supply"` // supply item consumed on entry
	Drops  []Drop `yaml:"drops"`
}

// Drop is one weighted outcome of a claim roll. Consumable 0 drops nothing.
type Drop struct {
	Consumable uint64 `yaml:"consumable"`
	Weight     uint64 `yaml:"weight"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("laborground: invalid built-in catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog.yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalog.yaml: %w", err)
	}
	return &c, nil
}

// Validate checks that every drop names a known consumable and every job can
// be rolled.
func (c *Catalog) Validate() error {
	if len(c.Jobs) == 0 {
		return errors.New("no jobs")
	}
	known := make(map[uint64]bool, len(c.Consumables))
	for _, con := range c.Consumables {
		if con.ID == 0 {
			return fmt.Errorf("consumable %q: id 0 is reserved", con.Name)
		}
		if known[con.ID] {
			return fmt.Errorf("consumable %d listed twice", con.ID)
		}
		known[con.ID] = true
	}
	for i, job := range c.Jobs {
		if job.Supply == 0 {
			return fmt.Errorf("job %d (%s): no supply", i, job.Name)
		}
		if job.totalWeight() == 0 {
			return fmt.Errorf("job %d (%s): empty drop table", i, job.Name)
		}
		for _, d := range job.Drops {
			if d.Consumable != 0 && !known[d.Consumable] {
				return fmt.Errorf("job %d (%s): unknown consumable %d", i, job.Name, d.Consumable)
			}
		}
	}
	return nil
}

// MaxConsumableID returns the highest consumable id in the catalog.
func (c *Catalog) MaxConsumableID() uint64 {
	var max uint64
	for _, con := range c.Consumables {
		if con.ID > max {
			max = con.ID
		}
	}
	return max
}

// job returns the job with the given number, if any.
func (c *Catalog) job(n uint8) (*Job, bool) {
	if int(n) >= len(c.Jobs) {
		return nil, false
	}
	return &c.Jobs[n], true
}

func (j *Job) totalWeight() uint64 {
	var total uint64
	for _, d := range j.Drops {
		total += d.Weight
	}
	return total
}

// pick maps a random roll onto the job's drop table.
func (j *Job) pick(roll uint64) uint64 {
	r := roll % j.totalWeight()
	for _, d := range j.Drops {
		if r < d.Weight {
			return d.Consumable
		}
		r -= d.Weight
	}
	return 0
}
