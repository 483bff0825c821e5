package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/buildtall-systems/sodamachine/internal/commands"
	"github.com/buildtall-systems/sodamachine/internal/db"
	"github.com/buildtall-systems/sodamachine/internal/dm"
	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/buildtall-systems/sodamachine/internal/metrics"
	"github.com/buildtall-systems/sodamachine/internal/nostr"
	gonostr "github.com/nbd-wtf/go-nostr"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// session is the order session driven by the terminal.
type session interface {
	commands.Machine
	Order() machine.Order
}

type journal interface {
	RecordAll(ctx context.Context, source string, events []machine.Event) error
}

type publisher interface {
	Publish(ctx context.Context, event *gonostr.Event) error
}

// eventClaims persists which relay events were already handled.
type eventClaims interface {
	TryProcess(eventID string, kind int, createdAt int64) (bool, error)
	SetHighWaterMark(ts int64) error
}

// smsChannel is the remote order side of the terminal.
type smsChannel struct {
	keyer     gonostr.Keyer
	pubkeyHex string
	publisher publisher
	claims    eventClaims
	dedup     *nostr.EventDeduplicator
	since     int64 // messages written before this are stale
}

// terminal feeds console lines and SMS messages one at a time into the session.
type terminal struct {
	session session
	out     io.Writer
	journal journal
	metrics *metrics.Metrics
	sms     *smsChannel
}

// readLines streams console input. The channel closes at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			log.WithError(err).Warn("reading console input")
		}
	}()
	return lines
}

func (t *terminal) greet() {
	t.print(commands.Menu(t.session.Products()))
	t.print(commands.Status(t.session.Order()))
}

// loop processes input until ctx is cancelled or the console closes.
func (t *terminal) loop(ctx context.Context, lines <-chan string, dms <-chan *gonostr.Event) error {
	for {
		select {
		case <-ctx.Done():
			t.shutdown(ctx)
			return nil

		case line, ok := <-lines:
			if !ok {
				log.Info("console input closed")
				t.shutdown(ctx)
				return nil
			}
			t.handleLine(ctx, line)

		case event, ok := <-dms:
			if !ok {
				dms = nil
				continue
			}
			t.handleDM(ctx, event)
		}
	}
}

func (t *terminal) handleLine(ctx context.Context, line string) {
	res := commands.Execute(ctx, t.session, commands.Parse(line))
	t.report(ctx, db.SourceConsole, res)
	t.print(res.Messages...)
	t.print(commands.Status(t.session.Order()))
}

func (t *terminal) handleDM(ctx context.Context, event *gonostr.Event) {
	s := t.sms
	if s == nil || event == nil {
		return
	}

	if s.dedup.IsDuplicate(event) {
		t.metrics.ObserveSMS(metrics.SMSDuplicate)
		return
	}
	fresh, err := s.claims.TryProcess(event.ID, event.Kind, int64(event.CreatedAt))
	if err != nil {
		log.WithError(err).WithField("event", event.ID).Warn("claiming DM event")
		return
	}
	if !fresh {
		t.metrics.ObserveSMS(metrics.SMSDuplicate)
		return
	}

	msg, err := dm.Unwrap(ctx, s.keyer, event)
	if err != nil {
		log.WithError(err).WithField("event", event.ID).Debug("ignoring unreadable DM")
		t.metrics.ObserveSMS(metrics.SMSUnreadable)
		return
	}
	if int64(msg.CreatedAt) < s.since {
		log.WithField("from", msg.SenderNpub).Info("ignoring stale sms order")
		t.metrics.ObserveSMS(metrics.SMSStale)
		return
	}

	log.WithFields(log.Fields{"from": msg.SenderNpub, "content": msg.Content}).Info("sms received")

	res := commands.ExecuteRemote(ctx, t.session, commands.Parse(msg.Content))
	t.report(ctx, db.SMSSource(msg.SenderNpub), res)
	t.print(fmt.Sprintf("SMS from %s: %s", msg.SenderNpub, msg.Content))
	t.print(res.Messages...)
	t.print(commands.Status(t.session.Order()))

	if err := s.claims.SetHighWaterMark(int64(msg.CreatedAt)); err != nil {
		log.WithError(err).Warn("saving high water mark")
	}

	if err := t.reply(ctx, msg, strings.Join(res.Messages, "\n")); err != nil {
		log.WithError(err).WithField("to", msg.SenderNpub).Warn("sms reply failed")
		t.metrics.ObserveSMS(metrics.SMSReplyFailed)
		return
	}
	t.metrics.ObserveSMS(metrics.SMSHandled)
}

func (t *terminal) reply(ctx context.Context, msg *dm.Message, text string) error {
	s := t.sms
	wrapped, err := dm.WrapResponse(ctx, s.keyer, s.pubkeyHex, msg.SenderPubkeyHex, text)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, wrapped)
}

// shutdown hands back any credit still held before the terminal exits.
func (t *terminal) shutdown(ctx context.Context) {
	if !t.session.Order().Credit().IsPositive() {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	res := t.session.Recall(ctx)
	t.report(ctx, db.SourceConsole, res)
	t.print(res.Messages...)
}

// report logs, journals and counts a command result.
func (t *terminal) report(ctx context.Context, source string, res machine.Result) {
	if res.Err != nil {
		entry := log.WithError(res.Err).WithField("source", source)
		if isRoutine(res.Err) {
			entry.Debug("command refused")
		} else {
			entry.Warn("command failed")
		}
	}

	if len(res.Events) == 0 {
		return
	}
	if err := t.journal.RecordAll(ctx, source, res.Events); err != nil {
		log.WithError(err).Error("journaling events")
	}
	t.metrics.ObserveEvents(res.Events)
}

func (t *terminal) print(lines ...string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(t.out, line)
	}
}

// isRoutine reports whether err is an expected refusal rather than a fault.
func isRoutine(err error) bool {
	for _, target := range []error{
		commands.ErrUsage,
		commands.ErrUnknownCommand,
		machine.ErrInvalidAmount,
		machine.ErrUnknownProduct,
		machine.ErrOrderRequired,
		machine.ErrPreviousOrderPending,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
