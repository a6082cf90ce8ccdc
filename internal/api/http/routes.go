package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	vi_translations "github.com/go-playground/validator/v10/translations/vi"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/simple-weather/internal/i18n"
	"github.com/i474232898/simple-weather/internal/presentation"
	"github.com/i474232898/simple-weather/internal/setting"
)

const sseKeepAlive = 15 * time.Second

// RegisterRoutes wires the settings handlers into the Fiber app. Event
// streams are closed when ctx is done.
func RegisterRoutes(ctx context.Context, app *fiber.App, vm *presentation.SettingViewModel, catalog *i18n.Catalog) error {
	validate := validator.New()
	if err := en_translations.RegisterDefaultTranslations(validate, catalog.Translator("en")); err != nil {
		return fmt.Errorf("register en validation messages: %w", err)
	}
	if err := vi_translations.RegisterDefaultTranslations(validate, catalog.Translator("vi")); err != nil {
		return fmt.Errorf("register vi validation messages: %w", err)
	}

	h := &handlers{ctx: ctx, vm: vm, catalog: catalog, validate: validate}

	v1 := app.Group("/api/v1/settings")
	v1.Get("/", h.getState)
	v1.Get("/events", h.streamState)
	v1.Put("/temperature", h.putTemperature)
	v1.Put("/wind-speed", h.putWindSpeed)
	v1.Put("/notifications/daily", h.putDailyNotification)
	v1.Put("/notifications/danger", h.putDangerNotification)
	v1.Delete("/error", h.clearError)
	v1.Delete("/success", h.clearSuccess)
	return nil
}

type handlers struct {
	ctx      context.Context
	vm       *presentation.SettingViewModel
	catalog  *i18n.Catalog
	validate *validator.Validate
}

// ErrorHandler renders every handler error as {"error":true,"message":...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// temperatureRequest is the body of PUT /temperature.
type temperatureRequest struct {
	Unit string `json:"unit" validate:"required,oneof=CELSIUS FAHRENHEIT"`
}

// windSpeedRequest is the body of PUT /wind-speed.
type windSpeedRequest struct {
	Unit string `json:"unit" validate:"required,oneof=KMH MPH"`
}

// toggleRequest is the body of the notification endpoints.
type toggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type messageResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type stateResponse struct {
	State          string               `json:"state"`
	Setting        *setting.UserSetting `json:"setting,omitempty"`
	Failure        *messageResponse     `json:"failure,omitempty"`
	Error          *messageResponse     `json:"error,omitempty"`
	SuccessMessage *messageResponse     `json:"successMessage,omitempty"`
}

func (h *handlers) lang(c *fiber.Ctx) string {
	return c.AcceptsLanguages(i18n.Languages...)
}

func (h *handlers) message(id setting.MessageID, lang string) *messageResponse {
	return &messageResponse{
		Code:    string(id),
		Message: h.catalog.Message(string(id), lang),
	}
}

func (h *handlers) render(st presentation.UIState, lang string) stateResponse {
	resp := stateResponse{
		State:   string(st.Status),
		Setting: st.Setting,
	}
	if st.Failure != nil {
		resp.Failure = h.message(st.Failure.MessageID(), lang)
	}
	if st.Error != nil {
		resp.Error = h.message(st.Error.MessageID(), lang)
	}
	if st.SuccessMessage != "" {
		resp.SuccessMessage = h.message(st.SuccessMessage, lang)
	}
	return resp
}

func (h *handlers) getState(c *fiber.Ctx) error {
	return c.JSON(h.render(h.vm.Snapshot(), h.lang(c)))
}

func (h *handlers) putTemperature(c *fiber.Ctx) error {
	var req temperatureRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	t, _ := setting.ParseTemperature(req.Unit)
	return h.afterUpdate(c, h.vm.UpdateTemperatureUnit(c.UserContext(), t))
}

func (h *handlers) putWindSpeed(c *fiber.Ctx) error {
	var req windSpeedRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	s, _ := setting.ParseSpeedType(req.Unit)
	return h.afterUpdate(c, h.vm.UpdateWindSpeedUnit(c.UserContext(), s))
}

func (h *handlers) putDailyNotification(c *fiber.Ctx) error {
	var req toggleRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	return h.afterUpdate(c, h.vm.UpdateDailyNotification(c.UserContext(), *req.Enabled))
}

func (h *handlers) putDangerNotification(c *fiber.Ctx) error {
	var req toggleRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	return h.afterUpdate(c, h.vm.UpdateDangerNotification(c.UserContext(), *req.Enabled))
}

func (h *handlers) clearError(c *fiber.Ctx) error {
	h.vm.ClearError()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) clearSuccess(c *fiber.Ctx) error {
	h.vm.ClearSuccessMessage()
	return c.SendStatus(fiber.StatusNoContent)
}

// bind parses and validates the JSON body into req.
func (h *handlers) bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			trans := h.catalog.Translator(h.lang(c))
			for _, msg := range verrs.Translate(trans) {
				return fiber.NewError(fiber.StatusBadRequest, msg)
			}
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// afterUpdate maps the outcome of a settings write. The setting in the
// response may still be the old one: it changes once the store re-emits.
func (h *handlers) afterUpdate(c *fiber.Ctx, err error) error {
	lang := h.lang(c)
	if err != nil {
		if de, ok := setting.AsDomainError(err); ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, h.catalog.Message(string(de.MessageID()), lang))
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
	}
	return c.Status(fiber.StatusAccepted).JSON(h.render(h.vm.Snapshot(), lang))
}

// streamState sends the UI state as server-sent events. The optional limit
// query parameter closes the stream after that many events.
func (h *handlers) streamState(c *fiber.Ctx) error {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	lang := h.lang(c)
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// The stream writer outlives the request, so the subscription is tied to
	// the server instead.
	ctx, cancel := context.WithCancel(h.ctx)
	states := h.vm.Subscribe(ctx)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		keepAlive := time.NewTicker(sseKeepAlive)
		defer keepAlive.Stop()

		sent := 0
		for {
			select {
			case st, ok := <-states:
				if !ok {
					return
				}
				payload, err := json.Marshal(h.render(st, lang))
				if err != nil {
					return
				}
				if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload); err != nil {
					return
				}
				sent++
			case <-keepAlive.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
			}
			// Flush fails once the client has gone away.
			if err := w.Flush(); err != nil {
				return
			}
			if limit > 0 && sent >= limit {
				return
			}
		}
	}))
	return nil
}
