package commands

import (
	"strings"
)

// Command represents a parsed user command.
type Command struct {
	Name string   // Command name (lowercase)
	Args []string // Arguments after the command name
}

// Known command names
const (
	CmdInsert = "insert"
	CmdOrder  = "order"
	CmdSMS    = "sms"
	CmdRecall = "recall"
	CmdHelp   = "help"
)

// Parse extracts a command from a console line or message content.
// Returns nil if the input is empty or contains only whitespace.
func Parse(content string) *Command {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return nil
	}

	return &Command{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// IsValid returns true if the command name is recognized.
func (c *Command) IsValid() bool {
	switch c.Name {
	case CmdInsert, CmdOrder, CmdSMS, CmdRecall, CmdHelp:
		return true
	default:
		return false
	}
}

// ProductArg returns the product name of an order command.
// Both "order <p>" and "sms order <p>" are accepted; only the first token
// after the verb counts.
func (c *Command) ProductArg() (string, bool) {
	args := c.Args
	if c.Name == CmdSMS {
		if len(args) == 0 || strings.ToLower(args[0]) != CmdOrder {
			return "", false
		}
		args = args[1:]
	} else if c.Name != CmdOrder {
		return "", false
	}

	if len(args) == 0 {
		return "", false
	}
	return args[0], true
}
