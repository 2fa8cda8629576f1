// Package dashboard собирает страницу из загруженной таблицы: метрики,
// данные диаграмм, отформатированную сетку и диагностику отказов.
package dashboard
