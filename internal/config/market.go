package config

import (
	"fmt"
	"os"

	"github.com/olyamironova/market-engine/internal/domain"
	"gopkg.in/yaml.v3"
)

// Market describes what is traded and who starts with what.
//
//	products: [XYZ, ABC]
//	accounts:
//	  - name: Bob
//	    holdings: {XYZ: 100}
type Market struct {
	Products []string  `yaml:"products"`
	Accounts []Account `yaml:"accounts"`
}

type Account struct {
	Name     string           `yaml:"name"`
	Holdings map[string]int64 `yaml:"holdings"`
}

func LoadMarket(path string) (*Market, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read market file: %w", err)
	}
	m, err := ParseMarket(b)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return m, nil
}

func ParseMarket(b []byte) (*Market, error) {
	var m Market
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Market) validate() error {
	if len(m.Products) == 0 {
		return fmt.Errorf("no products listed")
	}
	listed := make(map[string]bool, len(m.Products))
	for _, p := range m.Products {
		if p == "" {
			return fmt.Errorf("empty product name")
		}
		if listed[p] {
			return fmt.Errorf("product %s listed twice", p)
		}
		listed[p] = true
	}
	names := make(map[string]bool, len(m.Accounts))
	for _, a := range m.Accounts {
		if a.Name == "" {
			return fmt.Errorf("account without a name")
		}
		if names[a.Name] {
			return fmt.Errorf("account %s defined twice", a.Name)
		}
		names[a.Name] = true
		for p, n := range a.Holdings {
			if !listed[p] {
				return fmt.Errorf("account %s holds unlisted product %s", a.Name, p)
			}
			if n < 0 {
				return fmt.Errorf("account %s holds %d of %s", a.Name, n, p)
			}
		}
	}
	return nil
}

func (m *Market) DomainProducts() []domain.Product {
	res := make([]domain.Product, len(m.Products))
	for i, p := range m.Products {
		res[i] = domain.NewProduct(p)
	}
	return res
}

func (m *Market) DomainAccounts() []*domain.Account {
	res := make([]*domain.Account, len(m.Accounts))
	for i, a := range m.Accounts {
		holdings := make(map[domain.Product]int64, len(a.Holdings))
		for p, n := range a.Holdings {
			holdings[domain.NewProduct(p)] = n
		}
		res[i] = domain.NewAccount(a.Name, holdings)
	}
	return res
}
