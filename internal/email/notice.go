package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguemap/internal/assignment"
)

const noticeTimeout = 10 * time.Second

// maxNoticeLines caps the per-club lines listed in one notice.
const maxNoticeLines = 50

type Message struct {
	Subject string
	Body    string
}

// LeagueNamer maps a league id to a display name. The empty id is the
// unassigned bucket.
type LeagueNamer func(leagueID string) string

// BuildReassignmentNotice summarizes the clubs a sweep moved between leagues.
func BuildReassignmentNotice(changes []assignment.Change, leagueName LeagueNamer, at time.Time) Message {
	name := func(id string) string {
		if id == "" {
			return "Unassigned"
		}
		if leagueName != nil {
			if n := strings.TrimSpace(leagueName(id)); n != "" {
				return n
			}
		}
		return id
	}

	subject := fmt.Sprintf("%d clubs changed league", len(changes))
	if len(changes) == 1 {
		subject = "1 club changed league"
	}

	lines := []string{
		fmt.Sprintf("The league boundary sweep on %s reassigned %d clubs.", at.UTC().Format("Monday, Jan 2, 2006 15:04 MST"), len(changes)),
		"",
	}
	for i, change := range changes {
		if i == maxNoticeLines {
			lines = append(lines, fmt.Sprintf("... and %d more", len(changes)-maxNoticeLines))
			break
		}
		club := strings.TrimSpace(change.Name)
		if club == "" {
			club = fmt.Sprintf("Club #%d", change.ClubID)
		}
		lines = append(lines, fmt.Sprintf("%s: %s -> %s", club, name(change.From), name(change.To)))
	}

	return Message{Subject: subject, Body: strings.Join(lines, "\n")}
}

// Notifier mails messages to the configured administrators.
type Notifier struct {
	sender  EmailSender
	admins  []string
	timeout time.Duration
}

func NewNotifier(sender EmailSender, admins []string) *Notifier {
	cleaned := make([]string, 0, len(admins))
	for _, admin := range admins {
		if admin = strings.TrimSpace(admin); admin != "" {
			cleaned = append(cleaned, admin)
		}
	}
	return &Notifier{sender: sender, admins: cleaned, timeout: noticeTimeout}
}

// NotifyAdmins sends msg to every administrator. A failed recipient does not
// stop the others; all failures are returned joined.
func (n *Notifier) NotifyAdmins(ctx context.Context, msg Message) error {
	if n == nil || n.sender == nil || len(n.admins) == 0 {
		return nil
	}
	if msg.Subject == "" || msg.Body == "" {
		return fmt.Errorf("notice subject and body are required")
	}

	var errs []error
	for _, admin := range n.admins {
		sendCtx, cancel := newEmailContext(ctx, n.timeout)
		err := n.sender.Send(sendCtx, admin, msg.Subject, msg.Body)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", admin, err))
			continue
		}
		log.Ctx(ctx).Info().Str("recipient", admin).Str("subject", msg.Subject).Msg("Admin notice sent")
	}
	return errors.Join(errs...)
}
