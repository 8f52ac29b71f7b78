package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// MenuItem is one catalog line in a menu fixture.
type MenuItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Quantity    int64  `yaml:"quantity"`
}

// MenuCafeteria groups a cafeteria's opening menu in a fixture.
type MenuCafeteria struct {
	Name  string     `yaml:"name"`
	Items []MenuItem `yaml:"items"`
}

// MenuFixture is the YAML document shape for seeding campus menus.
type MenuFixture struct {
	Cafeterias []MenuCafeteria `yaml:"cafeterias"`
}

// LoadMenuFixture reads and validates a YAML menu fixture from disk.
func LoadMenuFixture(path string) (MenuFixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MenuFixture{}, fmt.Errorf("config: read menu fixture: %w", err)
	}
	return ParseMenuFixture(raw)
}

// ParseMenuFixture decodes and validates a YAML menu fixture payload.
func ParseMenuFixture(raw []byte) (MenuFixture, error) {
	var fixture MenuFixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return MenuFixture{}, fmt.Errorf("config: parse menu fixture: %w", err)
	}
	if len(fixture.Cafeterias) == 0 {
		return MenuFixture{}, fmt.Errorf("config: menu fixture lists no cafeterias")
	}
	for _, caf := range fixture.Cafeterias {
		if strings.TrimSpace(caf.Name) == "" {
			return MenuFixture{}, fmt.Errorf("config: menu fixture contains an unnamed cafeteria")
		}
		for _, item := range caf.Items {
			if strings.TrimSpace(item.Name) == "" {
				return MenuFixture{}, fmt.Errorf("config: cafeteria %q lists an unnamed item", caf.Name)
			}
			price, err := decimal.NewFromString(item.Price)
			if err != nil {
				return MenuFixture{}, fmt.Errorf("config: item %q at %q has invalid price %q", item.Name, caf.Name, item.Price)
			}
			if !price.IsPositive() {
				return MenuFixture{}, fmt.Errorf("config: item %q at %q has non-positive price %s", item.Name, caf.Name, price)
			}
			if item.Quantity <= 0 {
				return MenuFixture{}, fmt.Errorf("config: item %q at %q has non-positive quantity %d", item.Name, caf.Name, item.Quantity)
			}
		}
	}
	return fixture, nil
}

// ItemPrice parses the fixture price, which Parse/Load already validated.
func (m MenuItem) ItemPrice() decimal.Decimal {
	price, _ := decimal.NewFromString(m.Price)
	return price
}
