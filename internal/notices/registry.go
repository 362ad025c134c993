package notices

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"safora/internal/logging"
	"safora/internal/notifications"
	"safora/internal/store"
)

// Registry is the store-backed Board.
type Registry struct {
	store    *store.Store
	mirror   notifications.Service
	grouping bool
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithoutGrouping models platforms that have no channel-level grouping;
// RegisterChannel becomes a no-op.
func WithoutGrouping() Option {
	return func(r *Registry) { r.grouping = false }
}

// WithMirror sets the notification service posts and withdrawals are
// mirrored to.
func WithMirror(svc notifications.Service) Option {
	return func(r *Registry) {
		if svc != nil {
			r.mirror = svc
		}
	}
}

// NewRegistry builds a registry over st.
func NewRegistry(st *store.Store, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:    st,
		mirror:   notifications.NewService(nil),
		grouping: true,
		logger:   logging.NewComponentLogger(logger, "notices"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) RegisterChannel(ctx context.Context, d Descriptor) (bool, error) {
	if !r.grouping {
		return false, nil
	}
	if strings.TrimSpace(d.ID) == "" {
		return false, errors.New("notice channel id is required")
	}
	importance := d.Importance
	if importance == "" {
		importance = ImportanceDefault
	}
	created, err := r.store.RegisterNoticeChannel(ctx, store.NoticeChannel{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		Importance:   string(importance),
		ShowBadge:    d.ShowBadge,
		RegisteredAt: r.now(),
	})
	if err != nil {
		return false, err
	}
	if created {
		r.logger.Info("notice channel registered",
			logging.String("notice_channel", d.ID),
			logging.String("importance", string(importance)),
			logging.Bool("show_badge", d.ShowBadge),
			logging.String(logging.FieldEventType, "notice_channel_registered"),
		)
	}
	return created, nil
}

func (r *Registry) Post(ctx context.Context, n Notice) error {
	if n.ID <= 0 {
		return errors.New("notice id must be positive")
	}
	if n.PostedAt.IsZero() {
		n.PostedAt = r.now()
	}
	if n.Priority == "" {
		n.Priority = PriorityDefault
	}
	if err := r.store.UpsertNotice(ctx, toRow(n)); err != nil {
		return err
	}
	r.logger.Debug("notice posted",
		logging.Int("notice_id", n.ID),
		logging.String("notice_channel", n.ChannelID),
		logging.Bool("ongoing", n.Ongoing),
	)
	r.publish(ctx, notifications.EventNoticePosted, notifications.Payload{
		"id":       n.ID,
		"channel":  n.ChannelID,
		"title":    n.Title,
		"text":     n.Text,
		"priority": string(n.Priority),
	})
	return nil
}

func (r *Registry) Withdraw(ctx context.Context, id int) (bool, error) {
	removed, err := r.store.DeleteNotice(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		r.logger.Debug("notice withdrawn", logging.Int("notice_id", id))
		r.publish(ctx, notifications.EventNoticeWithdrawn, notifications.Payload{"id": id})
	}
	return removed, nil
}

func (r *Registry) Active(ctx context.Context) ([]Notice, error) {
	rows, err := r.store.ActiveNotices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Notice, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Channels lists the registered notice channels.
func (r *Registry) Channels(ctx context.Context) ([]Descriptor, error) {
	rows, err := r.store.NoticeChannels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Descriptor, 0, len(rows))
	for _, row := range rows {
		out = append(out, Descriptor{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Importance:  Importance(row.Importance),
			ShowBadge:   row.ShowBadge,
		})
	}
	return out, nil
}

func (r *Registry) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := r.mirror.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(r.logger, "notice mirror failed", "notice_mirror_failed",
			logging.String("mirror_event", string(event)),
			logging.Error(err),
			logging.Hint("check notifications.ntfy_topic reachability"),
			logging.Impact("remote mirror is out of date; local board unaffected"),
		)
	}
}

func toRow(n Notice) store.ActiveNotice {
	return store.ActiveNotice{
		ID:          n.ID,
		ChannelID:   n.ChannelID,
		Title:       n.Title,
		Body:        n.Text,
		Priority:    string(n.Priority),
		Ongoing:     n.Ongoing,
		Dismissible: n.Dismissible,
		PostedAt:    n.PostedAt,
	}
}

func fromRow(row store.ActiveNotice) Notice {
	return Notice{
		ID:          row.ID,
		ChannelID:   row.ChannelID,
		Title:       row.Title,
		Text:        row.Body,
		Priority:    Priority(row.Priority),
		Ongoing:     row.Ongoing,
		Dismissible: row.Dismissible,
		PostedAt:    row.PostedAt,
	}
}
