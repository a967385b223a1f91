package admin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-faster/errors"

	"storefront/internal/broadcast"
	"storefront/internal/domain/shop"
	"storefront/internal/notify"
	"storefront/internal/remote"
)

var ErrUnknownKey = errors.New("unknown site config key")

type SiteConfigEditorOptions struct {
	Remote   remote.SiteConfigStore
	Bus      *broadcast.Bus
	Channel  broadcast.Channel
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// SiteConfigEditor はサイト設定を1キーずつ保存し、保存後に
// 同一タブのイベントとタブ間チャネルで変更を知らせる。
type SiteConfigEditor struct {
	remote   remote.SiteConfigStore
	bus      *broadcast.Bus
	ch       broadcast.Channel
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewSiteConfigEditor(opts SiteConfigEditorOptions) *SiteConfigEditor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &SiteConfigEditor{
		remote:   opts.Remote,
		bus:      opts.Bus,
		ch:       opts.Channel,
		notifier: opts.Notifier,
		logger:   logger.With("component", "admin.siteconfig"),
	}
	if e.notifier == nil {
		e.notifier = notify.Discard{}
	}
	return e
}

// Save はRemote Storeに書いてから通知する。失敗したら何も知らせない。
func (e *SiteConfigEditor) Save(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key != shop.SiteConfigKeyName && key != shop.SiteConfigKeyLogo {
		return errors.Wrapf(ErrUnknownKey, "%q", key)
	}

	if err := e.remote.Set(ctx, key, value); err != nil {
		e.logger.Warn("site config save failed", "key", key, "error", err)
		e.notifier.Notify(notify.Failure("save site setting", key, err))
		return err
	}

	if e.bus != nil {
		e.bus.Emit(broadcast.Event{Topic: broadcast.TopicSiteConfig, Key: key})
	}
	if e.ch != nil {
		if err := e.ch.Post(ctx, broadcast.Message{Topic: broadcast.TopicSiteConfig, Key: key}); err != nil {
			// 他タブは次の定期リフレッシュで追いつく
			e.logger.Warn("site config broadcast failed", "key", key, "error", err)
		}
	}
	e.notifier.Notify(notify.Info("save site setting", key, "Saved "+key+"."))
	return nil
}
