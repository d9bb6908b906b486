package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/slotx/pkg/errx"
	"github.com/Abraxas-365/slotx/pkg/logx"
	"github.com/Abraxas-365/slotx/pkg/slotx"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const heartbeatInterval = 15 * time.Second

// RegisterRoutes mounts the slot API.
func (c *Container) RegisterRoutes(app *fiber.App) {
	app.Get("/health", c.healthCheckHandler)

	api := app.Group("/api/v1/slots")
	api.Get("/", c.listSlotsHandler)
	api.Get("/:name", c.getSlotHandler)
	api.Post("/:name/invoke", c.invokeHandler)
	api.Get("/:name/events", c.eventsHandler)
	api.Get("/:name/mirror", c.getMirrorHandler)
}

// ============================================================================
// Handler Functions
// ============================================================================

func (c *Container) healthCheckHandler(ctx *fiber.Ctx) error {
	health := fiber.Map{
		"status": "healthy",
		"slots":  c.SlotNames(),
	}

	if c.DB != nil {
		if err := c.DB.PingContext(ctx.UserContext()); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Ping(ctx.UserContext()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["redis_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}
	}

	status := fiber.StatusOK
	if health["status"] == "degraded" {
		status = fiber.StatusServiceUnavailable
	}
	return ctx.Status(status).JSON(health)
}

func (c *Container) listSlotsHandler(ctx *fiber.Ctx) error {
	snaps := make([]slotx.Snapshot, 0, len(c.slots))
	for _, name := range c.SlotNames() {
		snap, err := c.slots[name].Snapshot()
		if err != nil {
			return err
		}
		snaps = append(snaps, snap)
	}
	return ctx.JSON(fiber.Map{"slots": snaps})
}

func (c *Container) getSlotHandler(ctx *fiber.Ctx) error {
	s, err := c.lookup(ctx)
	if err != nil {
		return err
	}

	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	return ctx.JSON(snap)
}

// getMirrorHandler reads the snapshot last published to Redis. The slot does
// not have to be registered here; another slotd may own it.
func (c *Container) getMirrorHandler(ctx *fiber.Ctx) error {
	if c.Mirror == nil {
		return serverErrors.New(ErrNoMirror)
	}

	snap, err := c.Mirror.Get(ctx.UserContext(), ctx.Params("name"))
	if err != nil {
		return err
	}
	return ctx.JSON(snap)
}

// invokeHandler issues a call. Without ?wait=true it answers 202 with the
// token right away. With it, the response carries this call's own outcome,
// which may differ from the slot's state if a newer call was issued.
func (c *Container) invokeHandler(ctx *fiber.Ctx) error {
	s, err := c.lookup(ctx)
	if err != nil {
		return err
	}

	call, err := s.Invoke(c.ctx, ctx.Body())
	if err != nil {
		return err
	}

	if !ctx.QueryBool("wait", false) {
		return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"slot":  s.Name(),
			"token": call.Token,
		})
	}

	waitCtx, cancel := context.WithTimeout(ctx.UserContext(), c.Config.Slots.WaitTimeout)
	defer cancel()

	value, callErr := call.Await(waitCtx)
	if callErr != nil && waitCtx.Err() != nil && errors.Is(callErr, waitCtx.Err()) {
		return serverErrors.New(ErrWaitTimeout).
			WithDetail("slot", s.Name()).
			WithDetail("token", call.Token)
	}

	resp := fiber.Map{
		"slot":   s.Name(),
		"token":  call.Token,
		"latest": call.Token == currentToken(s),
	}
	if callErr != nil {
		resp["error"] = callErr.Error()
		var e *errx.Error
		if errors.As(callErr, &e) {
			resp["error_code"] = e.Code
		}
		return ctx.JSON(resp)
	}
	resp["value"] = value
	return ctx.JSON(resp)
}

// eventsHandler streams snapshots as server-sent events until the client
// goes away, the slot closes or the server shuts down. ?source=mirror reads
// them from Redis instead of the local tracker.
func (c *Container) eventsHandler(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	snaps, cancel, err := c.watch(name, ctx.Query("source", "local"))
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	log := logx.WithFields(logx.Fields{"slot": name, "request_id": requestID(ctx)})
	done := c.ctx.Done()

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		log.Debug("events: client connected")

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-done:
				return
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				if err := writeEvent(w, snap); err != nil {
					log.WithError(err).Debug("events: client gone")
					return
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					log.WithError(err).Debug("events: client gone")
					return
				}
			}
		}
	}))
	return nil
}

// watch opens a snapshot stream for name. "local" follows a registered slot;
// "mirror" follows whatever is published to Redis for that name.
func (c *Container) watch(name, source string) (<-chan slotx.Snapshot, func(), error) {
	switch source {
	case "local":
		s, ok := c.Slot(name)
		if !ok {
			return nil, nil, serverErrors.New(ErrSlotNotFound).WithDetail("slot", name)
		}
		snaps, cancel := s.Watch()
		return snaps, cancel, nil
	case "mirror":
		if c.Mirror == nil {
			return nil, nil, serverErrors.New(ErrNoMirror)
		}
		snaps, stop, err := c.Mirror.Watch(c.ctx, name)
		if err != nil {
			return nil, nil, err
		}
		return snaps, func() { _ = stop() }, nil
	default:
		return nil, nil, serverErrors.New(ErrBadSource).WithDetail("source", source)
	}
}

func writeEvent(w *bufio.Writer, snap slotx.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Version, data); err != nil {
		return err
	}
	return w.Flush()
}

func (c *Container) lookup(ctx *fiber.Ctx) (slot, error) {
	name := ctx.Params("name")
	s, ok := c.Slot(name)
	if !ok {
		return nil, serverErrors.New(ErrSlotNotFound).WithDetail("slot", name)
	}
	return s, nil
}

func currentToken(s slot) uint64 {
	snap, err := s.Snapshot()
	if err != nil {
		return 0
	}
	return snap.Token
}

// notFoundHandler handles 404 errors
func notFoundHandler(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       ctx.Path(),
		"method":     ctx.Method(),
		"request_id": requestID(ctx),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// newErrorHandler converts errors to the errx JSON shape. debug adds the
// wrapped cause.
func newErrorHandler(debug bool) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		rid := requestID(ctx)

		logx.WithFields(logx.Fields{
			"path":       ctx.Path(),
			"method":     ctx.Method(),
			"request_id": rid,
		}).WithError(err).Warn("Request error")

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(fiber.Map{
				"error":      fe.Message,
				"code":       "FIBER_ERROR",
				"status":     fe.Code,
				"request_id": rid,
			})
		}

		var e *errx.Error
		if errors.As(err, &e) {
			resp := e.ToHTTPResponse()
			resp.RequestID = rid
			body := fiber.Map{
				"error":      resp.Message,
				"code":       resp.Code,
				"type":       resp.Type,
				"status":     resp.StatusCode,
				"request_id": resp.RequestID,
			}
			if len(resp.Details) > 0 {
				body["details"] = resp.Details
			}
			if debug && e.Err != nil {
				body["underlying_error"] = e.Err.Error()
			}
			return ctx.Status(errx.StatusOf(e)).JSON(body)
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":      "Internal Server Error",
			"type":       "INTERNAL",
			"code":       "INTERNAL_ERROR",
			"request_id": rid,
		})
	}
}

// requestID returns the ID the requestid middleware put on the response.
func requestID(ctx *fiber.Ctx) string {
	return ctx.GetRespHeader(fiber.HeaderXRequestID)
}
