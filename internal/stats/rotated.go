// Package stats агрегирует извлечённые чеки в сводную статистику заказов.
package stats

import "time"

// rotatedDayStart — час начала «суток заказов»: заказы после полуночи
// относятся к сессии предыдущего календарного дня.
const rotatedDayStart = 7

// rotatedMinutes переводит время суток в линейное смещение в минутах
// относительно суток, начинающихся в 07:00. Значения лежат в диапазоне
// 0..1439; интервал 00:00–06:59 попадает в конец диапазона.
func rotatedMinutes(t time.Time) int {
	if t.Hour() >= rotatedDayStart {
		return (t.Hour()-rotatedDayStart)*60 + t.Minute()
	}
	return (t.Hour()+24-rotatedDayStart)*60 + t.Minute()
}
