package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCommand is set on results for input that names no command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage is set when a known command has malformed arguments.
	ErrUsage = errors.New("invalid command arguments")
)

// Machine is the order session a command runs against.
type Machine interface {
	Insert(ctx context.Context, amount decimal.Decimal) machine.Result
	SelectProduct(ctx context.Context, name string, viaSMS bool) machine.Result
	Recall(ctx context.Context) machine.Result
	Products() []machine.Product
}

// Execute runs a console command against the session.
func Execute(ctx context.Context, m Machine, cmd *Command) machine.Result {
	if cmd == nil {
		return selectOption(m)
	}

	switch cmd.Name {
	case CmdInsert:
		if len(cmd.Args) != 1 {
			return usage("insert <amount>")
		}
		amount, err := decimal.NewFromString(cmd.Args[0])
		if err != nil {
			return usage("insert <amount>")
		}
		return m.Insert(ctx, amount)

	case CmdOrder:
		product, ok := cmd.ProductArg()
		if !ok {
			return usage("order <product>")
		}
		return m.SelectProduct(ctx, product, false)

	case CmdSMS:
		if len(cmd.Args) == 0 || !strings.EqualFold(cmd.Args[0], CmdOrder) {
			return selectOption(m)
		}
		product, ok := cmd.ProductArg()
		if !ok {
			return usage("sms order <product>")
		}
		return m.SelectProduct(ctx, product, true)

	case CmdRecall:
		if len(cmd.Args) != 0 {
			return selectOption(m)
		}
		return m.Recall(ctx)

	case CmdHelp:
		return machine.Result{Messages: []string{Menu(m.Products())}}

	default:
		return selectOption(m)
	}
}

// ExecuteRemote runs a message received over the SMS channel. Only product
// orders are accepted there; they are always SMS-paid.
func ExecuteRemote(ctx context.Context, m Machine, cmd *Command) machine.Result {
	if cmd != nil {
		if product, ok := cmd.ProductArg(); ok {
			return m.SelectProduct(ctx, product, true)
		}
	}
	return usage("order <product>")
}

func usage(form string) machine.Result {
	return machine.Result{
		Messages: []string{"usage: " + form},
		Err:      ErrUsage,
	}
}

func selectOption(m Machine) machine.Result {
	return machine.Result{
		Messages: []string{MsgSelectOption, Menu(m.Products())},
		Err:      ErrUnknownCommand,
	}
}
