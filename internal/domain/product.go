package domain

// Product is a tradable instrument. Two products are the same instrument
// when their names are equal, so Product is safe to use as a map key.
type Product struct {
	Name string
}

func NewProduct(name string) Product {
	return Product{Name: name}
}

func (p Product) String() string {
	return p.Name
}

func (p Product) MarshalText() ([]byte, error) {
	return []byte(p.Name), nil
}

func (p *Product) UnmarshalText(b []byte) error {
	p.Name = string(b)
	return nil
}
