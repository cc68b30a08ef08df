package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/mmeshcher/foodwrapped-system/internal/model"
)

// orderTimeLayout соответствует формату времени заказа в чеке: "2025-02-12 8:05 PM".
const orderTimeLayout = "2006-01-02 3:04 PM"

// counter считает значения по ключу, сохраняя порядок первого появления ключей.
// Порядок нужен для детерминированного разрешения ничьих: при равных счётчиках
// побеждает ключ, встреченный раньше.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string, delta int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += delta
}

// max возвращает ключ с наибольшим значением, первый встреченный при равенстве.
func (c *counter) max() (string, int) {
	var bestKey string
	best := 0
	for _, key := range c.order {
		if c.counts[key] > best {
			bestKey = key
			best = c.counts[key]
		}
	}
	return bestKey, best
}

// Aggregate сворачивает последовательность писем с чеками в сводную статистику.
// Функция детерминирована при фиксированном порядке входа, не изменяет входные
// данные и на пустом входе возвращает сводку с нулевыми значениями.
func Aggregate(entries []model.EmailEntry) *model.Statistics {
	items := newCounter()
	restaurants := newCounter()
	dates := newCounter()

	var maxTotal float64
	var mostExpensive *model.MostExpensiveOrder

	earliestRot, latestRot := 1440, -1
	var earliest, latest *model.Receipt

	for _, entry := range entries {
		for _, att := range entry.Attachments {
			r := att.Receipt

			if dt, ok := parseOrderTime(r.OrderTime); ok {
				dates.add(dt.Format(time.DateOnly), 1)

				rot := rotatedMinutes(dt)
				if rot < earliestRot {
					earliestRot = rot
					snapshot := r
					earliest = &snapshot
				}
				if rot > latestRot {
					latestRot = rot
					snapshot := r
					latest = &snapshot
				}
			}

			for _, item := range r.Items {
				if item.Name != "" {
					items.add(item.Name, 1)
				}
			}

			if r.Total != nil && *r.Total > maxTotal {
				maxTotal = *r.Total
				mostExpensive = &model.MostExpensiveOrder{
					Filename:      att.Filename,
					Total:         *r.Total,
					TransactionID: r.TransactionID,
					OrderTime:     r.OrderTime,
					Items:         r.Items,
				}
			}

			if r.RestaurantName != "" {
				restaurants.add(r.RestaurantName, 1)
			}
		}
	}

	ranking := make([]model.ItemCount, 0, len(items.order))
	totalItems := 0
	for _, name := range items.order {
		ranking = append(ranking, model.ItemCount{Item: name, Count: items.counts[name]})
		totalItems += items.counts[name]
	}
	// Стабильная сортировка сохраняет порядок первого появления при равных счётчиках.
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})

	busiestDate, busiestCount := dates.max()
	topName, topCount := restaurants.max()

	recipient := ""
	for _, entry := range entries {
		if entry.RecipientName != "" {
			recipient = entry.RecipientName
			break
		}
	}

	return &model.Statistics{
		RecipientName:      recipient,
		ItemCounts:         ranking,
		MostExpensiveOrder: mostExpensive,
		TotalItemsOrdered:  totalItems,
		TotalUniqueItems:   len(items.order),
		BusiestDay:         model.BusiestDay{Date: busiestDate, OrderCount: busiestCount},
		BusiestDayOrders:   busiestDayOrders(entries, busiestDate),
		RestaurantCounts:   restaurants.counts,
		UniqueRestaurants:  len(restaurants.order),
		TopRestaurant:      model.TopRestaurant{Name: topName, Count: topCount},
		EarliestOrder:      earliest,
		LatestOrder:        latest,
	}
}

// busiestDayOrders собирает чеки самого загруженного дня в исходном порядке обхода.
func busiestDayOrders(entries []model.EmailEntry, date string) []model.Receipt {
	orders := []model.Receipt{}
	if date == "" {
		return orders
	}
	for _, entry := range entries {
		for _, att := range entry.Attachments {
			dt, ok := parseOrderTime(att.Receipt.OrderTime)
			if ok && dt.Format(time.DateOnly) == date {
				orders = append(orders, att.Receipt)
			}
		}
	}
	return orders
}

// parseOrderTime разбирает время заказа из чека; нераспознанная строка
// не считается ошибкой — такой чек просто не участвует в датированных метриках.
func parseOrderTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	dt, err := time.Parse(orderTimeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return dt, true
}
