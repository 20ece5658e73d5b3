package models

// CartItem est la forme stockée dans Redis : une ligne par produit.
type CartItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

// CartLine est une ligne enrichie avec le nom et le prix courant du produit.
type CartLine struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type CartView struct {
	Owner string     `json:"owner"`
	Items []CartLine `json:"items"`
	Total float64    `json:"total"`
	Count int        `json:"count"`
}
