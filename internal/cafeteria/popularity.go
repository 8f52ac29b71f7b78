package cafeteria

import (
	"strconv"

	"github.com/mensahq/mensa/errs"
)

// ItemCount pairs an item name with its cumulative fulfilled quantity.
type ItemCount struct {
	Item  string
	Count int64
}

// PopularItems returns the n most popular items, ranked by fulfilled quantity
// descending. Ties keep the earlier-sold item first: the ranking is a stable
// merge sort that favors the left half on equal counts.
func (c *Cafeteria) PopularItems(n int) ([]ItemCount, error) {
	if n <= 0 {
		return nil, errs.New("cafeteria/popularity", errs.CodeInvalid,
			errs.WithMessage("n must be greater than zero"),
			errs.WithField("n", strconv.Itoa(n)))
	}

	c.mu.Lock()
	counts := make([]ItemCount, 0, len(c.popOrder))
	for _, item := range c.popOrder {
		counts = append(counts, ItemCount{Item: item, Count: c.popularity[item]})
	}
	c.mu.Unlock()

	sorted := mergeSortByCount(counts)
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n], nil
}

func mergeSortByCount(items []ItemCount) []ItemCount {
	if len(items) <= 1 {
		return items
	}
	mid := len(items) / 2
	left := mergeSortByCount(items[:mid])
	right := mergeSortByCount(items[mid:])
	return mergeByCount(left, right)
}

func mergeByCount(left, right []ItemCount) []ItemCount {
	merged := make([]ItemCount, 0, len(left)+len(right))
	for len(left) > 0 && len(right) > 0 {
		if left[0].Count >= right[0].Count {
			merged = append(merged, left[0])
			left = left[1:]
		} else {
			merged = append(merged, right[0])
			right = right[1:]
		}
	}
	merged = append(merged, left...)
	merged = append(merged, right...)
	return merged
}
