package commands

import (
	"context"
	"testing"

	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCall struct {
	op      string
	amount  string
	product string
	viaSMS  bool
}

// stubMachine records what the dispatcher asked for.
type stubMachine struct {
	calls []stubCall
}

func (s *stubMachine) Insert(ctx context.Context, amount decimal.Decimal) machine.Result {
	s.calls = append(s.calls, stubCall{op: "insert", amount: amount.StringFixed(2)})
	return machine.Result{Messages: []string{"inserted"}}
}

func (s *stubMachine) SelectProduct(ctx context.Context, name string, viaSMS bool) machine.Result {
	s.calls = append(s.calls, stubCall{op: "select", product: name, viaSMS: viaSMS})
	return machine.Result{Messages: []string{"selected"}}
}

func (s *stubMachine) Recall(ctx context.Context) machine.Result {
	s.calls = append(s.calls, stubCall{op: "recall"})
	return machine.Result{Messages: []string{"recalled"}}
}

func (s *stubMachine) Products() []machine.Product {
	return []machine.Product{
		{ID: 1, Name: "Cola", PricePerUnit: decimal.RequireFromString("1.50")},
		{ID: 2, Name: "Fanta", PricePerUnit: decimal.RequireFromString("1.20")},
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCalls []stubCall
		wantMsg   string
		wantErr   error
	}{
		{
			name:      "insert",
			input:     "insert 2",
			wantCalls: []stubCall{{op: "insert", amount: "2.00"}},
			wantMsg:   "inserted",
		},
		{
			name:      "insert decimal amount",
			input:     "insert 0.5",
			wantCalls: []stubCall{{op: "insert", amount: "0.50"}},
			wantMsg:   "inserted",
		},
		{
			name:    "insert without amount",
			input:   "insert",
			wantMsg: "usage: insert <amount>",
			wantErr: ErrUsage,
		},
		{
			name:    "insert garbage amount",
			input:   "insert lots",
			wantMsg: "usage: insert <amount>",
			wantErr: ErrUsage,
		},
		{
			name:    "insert two amounts",
			input:   "insert 1 2",
			wantMsg: "usage: insert <amount>",
			wantErr: ErrUsage,
		},
		{
			name:      "walk-up order",
			input:     "order cola",
			wantCalls: []stubCall{{op: "select", product: "cola"}},
			wantMsg:   "selected",
		},
		{
			name:      "walk-up order uses first token only",
			input:     "order cola zero",
			wantCalls: []stubCall{{op: "select", product: "cola"}},
			wantMsg:   "selected",
		},
		{
			name:    "order without product",
			input:   "order",
			wantMsg: "usage: order <product>",
			wantErr: ErrUsage,
		},
		{
			name:      "sms order",
			input:     "sms order fanta",
			wantCalls: []stubCall{{op: "select", product: "fanta", viaSMS: true}},
			wantMsg:   "selected",
		},
		{
			name:    "sms order without product",
			input:   "sms order",
			wantMsg: "usage: sms order <product>",
			wantErr: ErrUsage,
		},
		{
			name:    "sms without order",
			input:   "sms cola",
			wantMsg: MsgSelectOption,
			wantErr: ErrUnknownCommand,
		},
		{
			name:      "recall",
			input:     "recall",
			wantCalls: []stubCall{{op: "recall"}},
			wantMsg:   "recalled",
		},
		{
			name:    "recall with argument",
			input:   "recall now",
			wantMsg: MsgSelectOption,
			wantErr: ErrUnknownCommand,
		},
		{
			name:    "help",
			input:   "help",
			wantMsg: "Available commands:",
		},
		{
			name:    "unknown command",
			input:   "dance",
			wantMsg: MsgSelectOption,
			wantErr: ErrUnknownCommand,
		},
		{
			name:    "empty line",
			input:   "   ",
			wantMsg: MsgSelectOption,
			wantErr: ErrUnknownCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &stubMachine{}

			res := Execute(context.Background(), m, Parse(tt.input))

			assert.Equal(t, tt.wantCalls, m.calls)
			require.NotEmpty(t, res.Messages)
			assert.Contains(t, res.Messages[0], tt.wantMsg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.Err, tt.wantErr)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestExecute_SelectOptionShowsMenu(t *testing.T) {
	res := Execute(context.Background(), &stubMachine{}, Parse("what"))

	require.Len(t, res.Messages, 2)
	assert.Equal(t, MsgSelectOption, res.Messages[0])
	assert.Contains(t, res.Messages[1], "order (cola, fanta)")
}

func TestExecuteRemote(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCalls []stubCall
		wantErr   error
	}{
		{
			name:      "order is sms paid",
			input:     "order cola",
			wantCalls: []stubCall{{op: "select", product: "cola", viaSMS: true}},
		},
		{
			name:      "sms order",
			input:     "sms order Fanta",
			wantCalls: []stubCall{{op: "select", product: "Fanta", viaSMS: true}},
		},
		{
			name:    "insert is not accepted remotely",
			input:   "insert 5",
			wantErr: ErrUsage,
		},
		{
			name:    "recall is not accepted remotely",
			input:   "recall",
			wantErr: ErrUsage,
		},
		{
			name:    "empty message",
			input:   "",
			wantErr: ErrUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &stubMachine{}

			res := ExecuteRemote(context.Background(), m, Parse(tt.input))

			assert.Equal(t, tt.wantCalls, m.calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.Err, tt.wantErr)
				assert.Equal(t, []string{"usage: order <product>"}, res.Messages)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}
