package models

import "strings"

// CommandType enumerates the chat commands understood by the shop assistant.
type CommandType string

const (
	CommandStock    CommandType = "stock"
	CommandLowStock CommandType = "low"
	CommandSummary  CommandType = "summary"
	CommandBuy      CommandType = "buy"
	CommandSell     CommandType = "sell"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed instruction extracted from a chat message.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.TrimSpace(message))
	cmd := Command{Raw: message, Type: CommandUnknown}

	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandStock, CommandLowStock, CommandSummary, CommandBuy, CommandSell, CommandHelp:
		cmd.Type = CommandType(head)
	case "purchase":
		cmd.Type = CommandBuy
	case "sale":
		cmd.Type = CommandSell
	}

	// Arguments keep their case: supplier and customer names are stored verbatim.
	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
