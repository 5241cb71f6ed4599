package format

import (
	"fmt"
	"time"
)

// DateTime форматирует дату и время в часовом поясе loc
func DateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}

// Date форматирует только дату
func Date(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006")
}

// TimeRange форматирует диапазон времени
func TimeRange(start, end time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s-%s", start.In(loc).Format("15:04"), end.In(loc).Format("15:04"))
}

// Duration форматирует длительность в минутах
func Duration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// PluralizeConsultations возвращает правильное склонение слова "консультация"
func PluralizeConsultations(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "консультация"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "консультации"
	}
	return "консультаций"
}
