package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mesapos/mesapos/internal/notify"
)

type EventsHTTP struct {
	Hub *notify.Hub
}

// Stream is the in-process terminal feed: an SSE stream of the caller's
// audience groups. The query param lists groups, e.g. ?groups=kitchen,business.
func (h *EventsHTTP) Stream(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	valid := map[notify.Audience]bool{}
	for _, a := range notify.Audiences {
		valid[a] = true
	}
	var audiences []notify.Audience
	for _, v := range strings.Split(c.QueryParam("groups"), ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		a := notify.Audience(v)
		if !valid[a] {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown audience "+v)
		}
		audiences = append(audiences, a)
	}
	if len(audiences) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "groups required")
	}

	sink := h.Hub.Subscribe(businessID, audiences...)
	defer h.Hub.Unsubscribe(sink)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sink.C:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
