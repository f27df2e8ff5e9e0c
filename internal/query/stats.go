package query

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/kimhsiao/squishylog/internal/models"
)

// OtherShop groups records with no shop name.
const OtherShop = "Other"

// UnknownShop labels records with no shop name in statistics.
const UnknownShop = "Unknown shop"

// priceNumber finds the first decimal number in a free-text price.
var priceNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// Group is one shop and its records.
type Group struct {
	Shop    string          `json:"shop"`
	Records []models.Record `json:"records"`
}

// GroupByShop groups records by shop name in first-appearance order.
func GroupByShop(records []models.Record) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, r := range records {
		shop := r.ShopName
		if shop == "" {
			shop = OtherShop
		}
		i, ok := index[shop]
		if !ok {
			i = len(groups)
			index[shop] = i
			groups = append(groups, Group{Shop: shop})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// ShopCount is a shop and how many records name it.
type ShopCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary holds collection statistics.
type Summary struct {
	TotalCount int         `json:"totalCount"`
	TotalSpent float64     `json:"totalSpent"`
	ImageCount int         `json:"imageCount"`
	Shops      []ShopCount `json:"shops"`
}

// Summarize computes statistics over records. Shops are sorted by count,
// most first; ties keep first-appearance order.
func Summarize(records []models.Record) Summary {
	s := Summary{TotalCount: len(records), Shops: []ShopCount{}}

	index := make(map[string]int)
	for _, r := range records {
		s.TotalSpent += ParsePrice(r.Price)
		s.ImageCount += r.ImageCount()

		name := r.ShopName
		if name == "" {
			name = UnknownShop
		}
		if i, ok := index[name]; ok {
			s.Shops[i].Count++
			continue
		}
		index[name] = len(s.Shops)
		s.Shops = append(s.Shops, ShopCount{Name: name, Count: 1})
	}

	sort.SliceStable(s.Shops, func(i, j int) bool {
		return s.Shops[i].Count > s.Shops[j].Count
	})
	return s
}

// ParsePrice returns the first decimal number in price, or 0.
// "20.5元" is 20.5.
func ParsePrice(price string) float64 {
	m := priceNumber.FindString(price)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}
