package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"vn.io.arda/admin-event-interpreter/internal/application"
	"vn.io.arda/admin-event-interpreter/internal/domain"
	"vn.io.arda/admin-event-interpreter/internal/transport/mw"
)

// Handler holds all HTTP handler methods.
type Handler struct {
	svc *application.Service
	hub *Hub
}

// NewHandler creates a new Handler.
func NewHandler(svc *application.Service, hub *Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}

// --- Ingest ---

// IngestAdminEvent POST /admin-events
func (h *Handler) IngestAdminEvent(c echo.Context) error {
	var ev domain.AdminEvent
	if err := json.NewDecoder(c.Request().Body).Decode(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid admin event body")
	}
	if ev.RealmID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "realmId is required")
	}
	if _, err := h.authorizeRealm(c, ev.RealmID); err != nil {
		return err
	}

	in, err := h.svc.Interpret(c.Request().Context(), ev)
	if err != nil {
		return httpError(err)
	}
	if in == nil {
		return c.JSON(http.StatusOK, map[string]bool{"duplicate": true})
	}
	return c.JSON(http.StatusAccepted, in)
}

// --- Queries ---

// ListInterpretations GET /interpretations
// Without ?realm= an admin realm token lists every realm, others their own.
func (h *Handler) ListInterpretations(c echo.Context) error {
	realm := c.QueryParam("realm")
	switch {
	case realm != "":
		name, err := h.authorizeRealm(c, realm)
		if err != nil {
			return err
		}
		realm = name
	case !mw.CrossRealm(c):
		realm = mw.Realm(c)
		if realm == "" {
			return echo.NewHTTPError(http.StatusForbidden, "token carries no realm")
		}
	}

	filter := domain.InterpretationFilter{
		RealmID:    realm,
		ObjectType: domain.ObjectType(c.QueryParam("object_type")),
		Operation:  domain.OperationKind(c.QueryParam("operation")),
		Limit:      parseIntQuery(c, "limit", 20),
		Offset:     parseIntQuery(c, "offset", 0),
	}.Normalized()

	interpretations, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return echo.ErrInternalServerError
	}
	if interpretations == nil {
		interpretations = []*domain.Interpretation{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":   interpretations,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetInterpretation GET /interpretations/:eventId
func (h *Handler) GetInterpretation(c echo.Context) error {
	in, err := h.svc.Get(c.Request().Context(), c.Param("eventId"))
	if err != nil {
		return httpError(err)
	}
	if !mw.CanAccessRealm(c, in.RealmID) {
		return echo.NewHTTPError(http.StatusNotFound, domain.ErrNotFound.Error())
	}
	return c.JSON(http.StatusOK, in)
}

// Organizations GET /realms/:realm/users/:userId/organizations
func (h *Handler) Organizations(c echo.Context) error {
	realm, err := h.authorizeRealm(c, c.Param("realm"))
	if err != nil {
		return err
	}

	groups, err := h.svc.Organizations(c.Request().Context(), realm, c.Param("userId"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": groups})
}

// ValidateRole GET /realms/:realm/users/:userId/role-validation?role=
func (h *Handler) ValidateRole(c echo.Context) error {
	role := c.QueryParam("role")
	if role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "role query parameter is required")
	}

	realm, err := h.authorizeRealm(c, c.Param("realm"))
	if err != nil {
		return err
	}

	result, err := h.svc.ValidateRole(c.Request().Context(), realm, c.Param("userId"), role)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"role":    result.RoleName,
		"granted": result.Granted(),
		"matches": result.Matches,
	})
}

// --- SSE Handler ---

// Stream GET /interpretations/stream?realm= (defaults to the token realm)
func (h *Handler) Stream(c echo.Context) error {
	realm := c.QueryParam("realm")
	if realm == "" {
		realm = mw.Realm(c)
	}
	switch {
	case realm == "":
		return echo.NewHTTPError(http.StatusBadRequest, "realm is required")
	case realm == AllRealms:
		if !mw.CrossRealm(c) {
			return echo.NewHTTPError(http.StatusForbidden, "streaming every realm requires an admin realm token")
		}
	default:
		name, err := h.authorizeRealm(c, realm)
		if err != nil {
			return err
		}
		realm = name
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable Nginx/APISIX buffering

	sendCh := make(chan []byte, 32)
	client := h.hub.Register(realm, sendCh)
	defer h.hub.Unregister(client)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"ok\"}\n\n")
	w.Flush()

	log.Info().Str("realm", realm).Msg("SSE stream opened")

	ctx := c.Request().Context()
	for {
		select {
		case msg, ok := <-sendCh:
			if !ok {
				return nil
			}
			if _, err := w.Write(msg); err != nil {
				return nil
			}
			w.Flush()

		case <-ctx.Done():
			log.Info().Str("realm", realm).Msg("SSE stream closed by client")
			return nil
		}
	}
}

// --- Healthcheck ---

// Health GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"sse_clients": h.hub.ConnectedCount(),
	})
}

// --- Helpers ---

// authorizeRealm resolves a realm id or name to the realm name and checks it
// against the caller's scope.
func (h *Handler) authorizeRealm(c echo.Context, ref string) (string, error) {
	realm, err := h.svc.ResolveRealm(c.Request().Context(), ref)
	if err != nil {
		return "", httpError(err)
	}
	if !mw.CanAccessRealm(c, realm) {
		return "", echo.NewHTTPError(http.StatusForbidden, "realm "+realm+" is outside the token scope")
	}
	return realm, nil
}

// httpError maps domain error kinds to HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnsupportedResourceType),
		errors.Is(err, domain.ErrUnsupportedResourceName),
		errors.Is(err, domain.ErrMalformedResourcePath),
		errors.Is(err, domain.ErrAttributeParse),
		errors.Is(err, domain.ErrAttributeMissing):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrRoleNotFound),
		errors.Is(err, domain.ErrUnknownRealm):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDirectoryLookup):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		return echo.ErrInternalServerError
	}
}

func parseIntQuery(c echo.Context, key string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// buildSSEMessage formats an interpretation as an SSE data frame.
func buildSSEMessage(v any) []byte {
	b, _ := json.Marshal(v)
	return []byte("event: interpretation\ndata: " + string(b) + "\n\n")
}
