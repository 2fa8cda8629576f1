/*
Package cache - процессный кеш с временем жизни записей.

Store хранит записи {value, createdAt, ttl} по строковому ключу и отдает их
через GetOrCompute:

	table, err := cache.GetOrCompute(ctx, store, "penguins:DEMO_DB.PUBLIC.PENGUINS",
	    5*time.Minute, loader.query)

  - ttl <= 0 - запись живет до конца процесса (подключение к хранилищу)
  - ошибки Producer не кешируются, следующий вызов повторит вычисление
  - конкурентные промахи по одному ключу схлопываются в один вызов Producer

Mirror (Redis) - необязательный второй уровень для сжатых снапшотов,
общий для нескольких реплик.
*/
package cache
