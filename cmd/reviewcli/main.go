// reviewcli is a small terminal client for reviewing cards out of a local
// sqlite store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/namsral/flag"

	"github.com/esheagren/pluck-sub000/internal/session"
	"github.com/esheagren/pluck-sub000/internal/srs"
	"github.com/esheagren/pluck-sub000/internal/stores"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 3)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type model struct {
	store  *stores.SQLite
	sess   *session.Session
	userID string
	bar    progress.Model

	front    string
	back     string
	previews srs.Previews
	revealed bool
	done     bool
	errmsg   string
}

func newModel(store *stores.SQLite, sess *session.Session, userID string) model {
	m := model{store: store, sess: sess, userID: userID, bar: progress.New(progress.WithDefaultGradient())}
	m.loadCurrent()
	return m
}

// loadCurrent refreshes the displayed card, its content and the interval
// previews from the session.
func (m *model) loadCurrent() {
	m.revealed = false
	m.errmsg = ""
	card, ok := m.sess.CurrentCard()
	if !ok {
		m.done = true
		return
	}
	m.done = false
	content, err := m.store.Content(context.Background(), m.userID, card.ID)
	if err != nil {
		m.errmsg = err.Error()
	}
	m.front, m.back = content.Front, content.Back
	previews, err := m.sess.Previews()
	if err != nil {
		m.errmsg = err.Error()
		return
	}
	m.previews = previews
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "n":
		if m.done {
			if err := m.sess.StartNewCardsSession(context.Background(), true); err != nil {
				m.errmsg = err.Error()
				return m, nil
			}
			m.loadCurrent()
		}
		return m, nil

	case "f", " ":
		m.revealed = true
		return m, nil

	case "s":
		m.sess.SkipCard()
		m.loadCurrent()
		return m, nil

	case "1", "2", "3", "4":
		if !m.revealed {
			// Caller contract: rate only after the flip.
			return m, nil
		}
		rating := srs.Rating(int(keyMsg.String()[0] - '0'))
		err := m.sess.SubmitReview(context.Background(), rating)
		if err != nil && !errors.Is(err, session.ErrNoCurrentCard) {
			// Queue state is unchanged; the same key retries.
			m.errmsg = err.Error()
			return m, nil
		}
		m.loadCurrent()
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	counters := m.sess.Counters()
	b.WriteString(titleStyle.Render("pluck review"))
	b.WriteString(faintStyle.Render(fmt.Sprintf("  %d reviewed / %d in queue\n\n",
		counters.ReviewedCount, counters.TotalCards)))

	if m.done {
		b.WriteString("All caught up for this sitting.\n")
		if counters.TotalNewCards > 0 {
			b.WriteString(fmt.Sprintf("(n) learn %d more new cards anyway    ", counters.TotalNewCards))
		}
		b.WriteString("(q) quit\n")
		return b.String()
	}

	body := m.front
	if m.revealed {
		body += "\n\n" + answerStyle.Render(m.back)
	}
	b.WriteString(cardStyle.Render(body))
	b.WriteString("\n\n")

	p := m.sess.Progress()
	b.WriteString(m.bar.ViewAs(p.CompletedPct))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(fmt.Sprintf("done %d · review %d · new %d · again %d\n\n",
		p.Completed, p.Review, p.New, p.Again)))

	if m.revealed {
		b.WriteString(fmt.Sprintf("(1) Again %s   (2) Hard %s   (3) Good %s   (4) Easy %s\n",
			m.previews.Again, m.previews.Hard, m.previews.Good, m.previews.Easy))
		b.WriteString(faintStyle.Render("(s) skip   (q) quit\n"))
	} else {
		b.WriteString("(f) flip   (s) skip   (q) quit\n")
	}

	if m.errmsg != "" {
		b.WriteString(errStyle.Render("\n" + m.errmsg + "\n"))
	}
	return b.String()
}

func main() {
	fs := flag.NewFlagSet("reviewcli", flag.ExitOnError)
	dbPath := fs.String("db", "pluck.db", "path of the sqlite card store")
	userID := fs.String("user", "local", "user the cards belong to")
	newPerDay := fs.Int("new-cards-per-day", 20, "daily cap on new cards; 0 means unlimited")
	fs.Parse(os.Args[1:])

	store, err := stores.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	// "reviewcli add <front> <back>" seeds a card and exits.
	if args := fs.Args(); len(args) > 0 && args[0] == "add" {
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: reviewcli add <front> <back>")
			os.Exit(1)
		}
		nower := session.RealNower{}
		cards, err := store.AddCards(ctx, *userID,
			[]stores.CardContent{{Front: args[1], Back: args[2]}}, nower.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not add card: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("added card %s\n", cards[0].ID)
		return
	}

	sched, err := srs.NewScheduler(srs.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build scheduler: %v\n", err)
		os.Exit(1)
	}
	sess, err := session.New(ctx, store, sched, session.RealNower{}, *userID,
		session.Config{NewCardsPerDay: *newPerDay})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build session: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(store, sess, *userID))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
