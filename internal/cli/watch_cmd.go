package cli

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/alexanderramin/vigil/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of today's activity",
		Long: "Shows today's activity and refreshes it whenever the running monitor stores a change.\n" +
			"Changes arrive over the monitor's /ws endpoint when api.listen is set; otherwise the store is polled.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.load(); err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			changes, source := pollChanges(ctx, every), "polling every "+every.String()
			if addr := app.Config.API.Listen; addr != "" {
				if ws, err := websocketChanges(ctx, addr); err == nil {
					changes, source = ws, "monitor at "+addr
				} else {
					log.Debug().Err(err).Msg("falling back to polling")
				}
			}

			load := func(ctx context.Context) (*domain.DailyLog, error) {
				return app.Repo.Load(ctx, app.Today())
			}
			_, err := tea.NewProgram(newWatchModel(load, changes, source), tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&every, "every", 5*time.Second, "Polling interval when no monitor API is reachable")
	return cmd
}

// pollChanges signals every interval until ctx is done.
func pollChanges(ctx context.Context, every time.Duration) <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch
}

// websocketChanges subscribes to a running monitor's change feed. The
// channel closes when the connection drops.
func websocketChanges(ctx context.Context, listen string) (<-chan struct{}, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return nil, err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, port), Path: "/ws"}

	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	ch := make(chan struct{}, 1)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(ch)
		for {
			var msg struct {
				Type string `json:"type"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != "changed" {
				continue
			}
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	return ch, nil
}
