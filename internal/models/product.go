package models

import "sort"

// ProductKind groups products by the provisioning branch they are sold for
type ProductKind string

const (
	ProductKindUser  ProductKind = "user"
	ProductKindAdmin ProductKind = "admin"
)

// Product is a purchasable panel tier
type Product struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price int64       `json:"price"`
	Type  ProductKind `json:"type"`
}

// ProductList is the storefront catalogue grouped by kind
type ProductList struct {
	UserPanels  []Product `json:"userPanels"`
	AdminPanels []Product `json:"adminPanels"`
}

type productInfo struct {
	name  string
	kind  ProductKind
	order int
}

var knownProducts = map[string]productInfo{
	"1gb":      {"1GB Panel", ProductKindUser, 1},
	"2gb":      {"2GB Panel", ProductKindUser, 2},
	"3gb":      {"3GB Panel", ProductKindUser, 3},
	"4gb":      {"4GB Panel", ProductKindUser, 4},
	"5gb":      {"5GB Panel", ProductKindUser, 5},
	"unli":     {"Unlimited Panel", ProductKindUser, 6},
	"reseller": {"Reseller", ProductKindAdmin, 7},
	"admin":    {"Admin Panel", ProductKindAdmin, 8},
	"pt":       {"PT Panel", ProductKindAdmin, 9},
	"owner":    {"Owner Panel", ProductKindAdmin, 10},
	"tk":       {"TK Panel", ProductKindAdmin, 11},
	"ceo":      {"CEO Panel", ProductKindAdmin, 12},
}

// DefaultPrices are the rupiah prices used when no override is configured
var DefaultPrices = map[string]int64{
	"1gb":      1000,
	"2gb":      2000,
	"3gb":      3000,
	"4gb":      4000,
	"5gb":      5000,
	"unli":     10000,
	"reseller": 3000,
	"admin":    5000,
	"pt":       8000,
	"owner":    10000,
	"tk":       12000,
	"ceo":      15000,
}

// Catalog resolves product types to prices
type Catalog struct {
	prices map[string]int64
}

// NewCatalog copies prices; a nil map falls back to DefaultPrices
func NewCatalog(prices map[string]int64) *Catalog {
	if prices == nil {
		prices = DefaultPrices
	}
	c := &Catalog{prices: make(map[string]int64, len(prices))}
	for k, v := range prices {
		c.prices[k] = v
	}
	return c
}

// Price returns the price of productType; ok is false for unknown or zero-priced types
func (c *Catalog) Price(productType string) (int64, bool) {
	price, ok := c.prices[productType]
	if !ok || price <= 0 {
		return 0, false
	}
	return price, true
}

// Products lists every priced product, grouped by kind
func (c *Catalog) Products() ProductList {
	ids := make([]string, 0, len(c.prices))
	for id := range c.prices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		oi, oj := orderOf(ids[i]), orderOf(ids[j])
		if oi != oj {
			return oi < oj
		}
		return ids[i] < ids[j]
	})

	list := ProductList{UserPanels: []Product{}, AdminPanels: []Product{}}
	for _, id := range ids {
		price, ok := c.Price(id)
		if !ok {
			continue
		}
		info, known := knownProducts[id]
		if !known {
			info = productInfo{name: id, kind: ProductKindUser}
		}
		p := Product{ID: id, Name: info.name, Price: price, Type: info.kind}
		if info.kind == ProductKindAdmin {
			list.AdminPanels = append(list.AdminPanels, p)
		} else {
			list.UserPanels = append(list.UserPanels, p)
		}
	}
	return list
}

func orderOf(id string) int {
	if info, ok := knownProducts[id]; ok {
		return info.order
	}
	return len(knownProducts) + 1
}
