package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/service"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/httpx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
)

// keepAliveInterval paces SSE comment frames so idle connections survive
// proxies that reap quiet streams.
const keepAliveInterval = 25 * time.Second

type NotificationsHandler struct {
	Notifier *service.Notifier
}

// HandleStream opens the caller's live event stream.
//
//	@Summary		Live event stream
//	@Description	Server-sent events carrying notification and statistics frames for the authenticated account. Each frame is a JSON envelope {"type":"notification"|"statistics","data":...}.
//	@Tags			Notifications
//	@Security		SessionAuth
//	@Produce		text/event-stream
//	@Success		200	{string}	string	"event stream"
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Router			/v1/notifications/stream [get].
func (h *NotificationsHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream := h.Notifier.Subscribe(userID)
	defer h.Notifier.Unsubscribe(userID, stream)

	l := slogx.FromContext(ctx)
	l.Info("live stream opened", "user_id", userID)
	defer l.Info("live stream closed", "user_id", userID)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-stream.C():
			if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// HandleList returns the caller's stored notifications, newest first.
//
//	@Summary		List notifications
//	@Tags			Notifications
//	@Security		SessionAuth
//	@Produce		json
//	@Success		200	{object}	NotificationsResponse
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Router			/v1/notifications [get].
func (h *NotificationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	list, err := h.Notifier.List(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Error("notification listing failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := NotificationsResponse{Notifications: list}
	if resp.Notifications == nil {
		resp.Notifications = []domain.Notification{}
	}
	resp.applyRenewal(ctx)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleMarkRead flags the caller's notifications up to a cutoff as read.
//
//	@Summary		Mark notifications read
//	@Description	Marks every stored notification of the caller with time <= the given cutoff (epoch milliseconds) as read.
//	@Tags			Notifications
//	@Security		SessionAuth
//	@Produce		json
//	@Param			time	query		int	true	"Cutoff, epoch milliseconds"
//	@Success		200		{object}	MarkReadResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Missing or invalid cutoff"
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Router			/v1/notifications/read [patch].
func (h *NotificationsHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	cutoff, err := strconv.ParseInt(r.URL.Query().Get("time"), 10, 64)
	if err != nil || cutoff <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "missing or invalid time cutoff")
		return
	}

	updated, err := h.Notifier.MarkRead(ctx, userID, cutoff)
	if err != nil {
		slogx.FromContext(ctx).Error("mark read failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := MarkReadResponse{Updated: updated}
	resp.applyRenewal(ctx)
	httpx.WriteJSON(w, http.StatusOK, resp)
}
