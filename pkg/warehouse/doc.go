/*
Package warehouse - подключение к Snowflake для трех режимов развертывания.

Режим берется из DEPLOYMENT_ENV:

  - AWS    - App Runner, workload identity federation по роли инстанса
  - DOCKER - учетные данные из SNOWFLAKE_* переменных окружения
  - LOCAL  - раздел snowflake файла секретов (по умолчанию .secrets/secrets.yaml)

Любое другое значение использует стратегию LOCAL.

Provider держит одно подключение на процесс:

	settings, err := warehouse.FromEnv()
	provider := warehouse.NewProvider(settings, store)
	db, err := provider.DB(ctx)
*/
package warehouse
