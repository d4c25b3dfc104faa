package util

const (
	DatabaseMySQL    = "mysql"
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

// 显式结算路径在没有已完成任务时的基础分
const DefaultLevelScore = 60
