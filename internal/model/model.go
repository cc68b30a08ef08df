// Package model содержит доменные сущности сервиса foodwrapped.
package model

import "time"

// ReceiptItem описывает одну позицию чека.
type ReceiptItem struct {
	Name string `json:"name"`
}

// Receipt представляет структурированный чек, извлечённый из одного письма.
// Необязательные поля остаются пустыми, если распознать их не удалось.
type Receipt struct {
	TransactionID  string        `json:"transaction_id,omitempty"`
	OrderTime      string        `json:"order_time,omitempty"`
	PickupTime     string        `json:"pickup_time,omitempty"`
	RestaurantName string        `json:"restaurant_name,omitempty"`
	Items          []ReceiptItem `json:"items"`
	Total          *float64      `json:"total,omitempty"`
}

// Attachment связывает чек с именем файла, из которого он был извлечён.
type Attachment struct {
	Filename string  `json:"filename"`
	Receipt  Receipt `json:"parsed_receipt"`
}

// EmailEntry группирует данные одного письма: тему, имя получателя и извлечённые чеки.
type EmailEntry struct {
	Subject       string       `json:"subject"`
	RecipientName string       `json:"recipient_name,omitempty"`
	Attachments   []Attachment `json:"attachments"`
}

// ItemCount содержит позицию меню и количество её заказов.
type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// BusiestDay описывает календарную дату с наибольшим числом заказов.
type BusiestDay struct {
	Date       string `json:"date,omitempty"`
	OrderCount int    `json:"order_count"`
}

// TopRestaurant описывает ресторан с наибольшим числом заказов.
type TopRestaurant struct {
	Name  string `json:"name,omitempty"`
	Count int    `json:"count"`
}

// MostExpensiveOrder содержит снимок самого дорогого заказа батча.
type MostExpensiveOrder struct {
	Filename      string        `json:"filename,omitempty"`
	Total         float64       `json:"total"`
	TransactionID string        `json:"transaction_id,omitempty"`
	OrderTime     string        `json:"order_time,omitempty"`
	Items         []ReceiptItem `json:"items"`
}

// Statistics представляет агрегированную статистику заказов по всем чекам батча.
// Структура собирается заново на каждую загрузку и после этого не изменяется.
type Statistics struct {
	RecipientName      string              `json:"recipient_name,omitempty"`
	ItemCounts         []ItemCount         `json:"item_counts"`
	MostExpensiveOrder *MostExpensiveOrder `json:"most_expensive_order,omitempty"`
	TotalItemsOrdered  int                 `json:"total_items_ordered"`
	TotalUniqueItems   int                 `json:"total_unique_items"`
	BusiestDay         BusiestDay          `json:"busiest_day"`
	BusiestDayOrders   []Receipt           `json:"busiest_day_orders"`
	RestaurantCounts   map[string]int      `json:"restaurant_counts"`
	UniqueRestaurants  int                 `json:"unique_restaurants"`
	TopRestaurant      TopRestaurant       `json:"top_restaurant"`
	EarliestOrder      *Receipt            `json:"earliest_order_by_time,omitempty"`
	LatestOrder        *Receipt            `json:"latest_order_by_time,omitempty"`
}

// SummaryRecord описывает сохранённую в истории сводку одной загрузки.
type SummaryRecord struct {
	ID            int64
	RecipientName string
	TotalItems    int
	UniqueItems   int
	BusiestDate   string
	BusiestCount  int
	TopRestaurant string
	CreatedAt     time.Time
}
