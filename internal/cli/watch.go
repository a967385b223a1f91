package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"storefront/internal/domain/shop"
)

// NewWatchCommand はタブを開いたままにして、他のタブの変更を表示し続ける。
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep a tab open and print every change",
		Long: `Keep a tab open and print the cart, favorites and site configuration
whenever they change, including changes made by other tabs. Press Enter to
refresh from the Remote Store, Ctrl-C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := openTab(ctx, cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			p := &eventPrinter{w: cmd.OutOrStdout(), format: rootOpts.Format}
			tab := env.Tab
			tab.Cart.OnChange(p.cart)
			tab.Favorites.OnChange(p.favorites)
			tab.SiteConfig.OnChange(p.siteConfig)

			p.cart(tab.Cart.Lines(), tab.Cart.Count(), tab.Cart.Total())
			p.favorites(tab.Favorites.IDs())
			p.siteConfig(tab.SiteConfig.Get(ctx))

			go func() {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					tab.Focus()
				}
			}()

			<-ctx.Done()
			return nil
		},
	}
}

// eventPrinter は変更を1行ずつ出す。json なら1行1オブジェクト。
type eventPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

type watchEvent struct {
	At    time.Time   `json:"at"`
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

func (p *eventPrinter) emit(topic, text string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.format == "json" {
		_ = writeCompactJSON(p.w, watchEvent{At: time.Now().UTC(), Topic: topic, Data: data})
		return
	}
	fmt.Fprintf(p.w, "%s [%s] %s\n", time.Now().Format("15:04:05"), topic, text)
}

func (p *eventPrinter) cart(lines []shop.CartLine, count int, total decimal.Decimal) {
	if lines == nil {
		lines = []shop.CartLine{}
	}
	p.emit("cart",
		fmt.Sprintf("%d item(s), total %s", count, total.StringFixed(2)),
		cartView{Lines: lines, Count: count, Total: total.StringFixed(2)})
}

func (p *eventPrinter) favorites(ids []string) {
	if ids == nil {
		ids = []string{}
	}
	p.emit("favorites", fmt.Sprintf("%d favorite(s) %v", len(ids), ids), map[string][]string{"product_ids": ids})
}

func (p *eventPrinter) siteConfig(cfg shop.SiteConfig) {
	text := cfg.SiteName
	if logo := cfg.LogoURL(); logo != "" {
		text += " logo=" + logo
	}
	p.emit("site-config", text, cfg)
}
