package domain

import "time"

type Product struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"nombre"`
	Image     string    `db:"image" json:"imagen"`
	CreatedAt string    `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt string    `db:"updated_at" json:"updated_at,omitempty"`
	Variants  []Variant `db:"-" json:"variantes"`
}

// Variant ids are unique across the whole catalog, not just within a product.
type Variant struct {
	ID        int64   `db:"id" json:"id"`
	ProductID int64   `db:"product_id" json:"product_id"`
	Position  int     `db:"position" json:"-"`
	Price     float64 `db:"price" json:"precio"`
	Stock     int     `db:"stock" json:"stock"`
	Image     string  `db:"image" json:"imagen"`
}

// Find returns the variant with the given id, if the product owns it.
func (p Product) Find(variantID int64) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return Variant{}, false
}

// CartLine is one (variant id, quantity) pair submitted at checkout.
type CartLine struct {
	VariantID int64 `json:"id"`
	Quantity  int   `json:"quantity"`
}

type InvoiceItem struct {
	Name     string  `json:"nombre"`
	Price    float64 `json:"precio"`
	Quantity int     `json:"cantidad"`
	Image    string  `json:"imagen,omitempty"`
}

func (i InvoiceItem) Subtotal() float64 { return i.Price * float64(i.Quantity) }

type Invoice struct {
	Customer map[string]string `json:"datosCliente"`
	Cart     []InvoiceItem     `json:"carrito"`
	Total    float64           `json:"total"`
	IssuedAt time.Time         `json:"fecha"`
}

// InvoiceFile describes a stored invoice PDF.
type InvoiceFile struct {
	Name   string    `json:"nombre"`
	URL    string    `json:"url"`
	Date   time.Time `json:"fecha"`
	SizeKB string    `json:"tamanoKB"`
}
