package commands

import (
	"fmt"
	"strings"

	"github.com/buildtall-systems/sodamachine/internal/machine"
)

// MsgSelectOption is shown for input that is not a command.
const MsgSelectOption = "Select an option"

// Menu renders the command list for the given catalog.
func Menu(products []machine.Product) string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, strings.ToLower(p.Name))
	}
	list := strings.Join(names, ", ")

	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	sb.WriteString("insert (money) - Money put into money slot\n")
	fmt.Fprintf(&sb, "order (%s) - Order from machines buttons\n", list)
	fmt.Fprintf(&sb, "sms order (%s) - Order sent by sms\n", list)
	sb.WriteString("recall - gives money back")
	return sb.String()
}

// Status renders the inserted money line shown after every command.
func Status(order machine.Order) string {
	return "Inserted money: " + machine.FormatAmount(order.Credit())
}
