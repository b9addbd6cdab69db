// Package consts contains constants for the bot domain
package consts

// Command represents a bot command
type Command struct {
	Name        string
	Description string
}

// Bot commands
var (
	CommandStart  = Command{Name: "start", Description: "Запустить бота"}
	CommandHelp   = Command{Name: "help", Description: "Показать справку"}
	CommandSearch = Command{Name: "search", Description: "Поиск видео на YouTube"}
	CommandStats  = Command{Name: "stats", Description: "Показать статистику бота"}
	CommandReport = Command{Name: "report", Description: "Сообщить о проблеме"}
)

// AllCommands contains all available bot commands for menu registration
var AllCommands = []Command{
	CommandStart,
	CommandHelp,
	CommandSearch,
	CommandStats,
	CommandReport,
}
