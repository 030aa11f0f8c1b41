// handlers/quest_routes.go
package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"sync/atomic"
	"time"

	"community-hub/middleware"
	"community-hub/services"

	"github.com/gofiber/fiber/v2"
)

// QuestStreamInterval is how often the SSE stream samples the session.
// Half the video tick, so every progress step reaches the shell.
const QuestStreamInterval = 50 * time.Millisecond

// questKeepaliveTicks idle samples (one second) between keepalive comments.
const questKeepaliveTicks = 20

func SetupQuestRoutes(app *fiber.App, sessions *services.SessionRegistry) {
	secured := app.Group("/s/quest", middleware.UserContextMiddleware())

	secured.Get("/", func(c *fiber.Ctx) error {
		s := sessions.Get(c.UserContext(), middleware.UserID(c))
		return c.JSON(s.Quest.Snapshot())
	})

	secured.Post("/steps/:id/activate", func(c *fiber.Ctx) error {
		s := sessions.Get(c.UserContext(), middleware.UserID(c))

		outcome, err := s.Quest.Activate(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, services.ErrUnknownStep) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to complete step",
				"cause": err.Error(),
				"quest": s.Quest.Snapshot(),
			})
		}

		status := fiber.StatusOK
		if outcome == services.ActivateVideoStarted {
			status = fiber.StatusAccepted
		}
		return c.Status(status).JSON(fiber.Map{
			"outcome": outcome,
			"quest":   s.Quest.Snapshot(),
		})
	})

	secured.Delete("/video", func(c *fiber.Ctx) error {
		s := sessions.Get(c.UserContext(), middleware.UserID(c))
		s.Quest.CloseVideo()
		return c.JSON(s.Quest.Snapshot())
	})

	secured.Get("/stream", func(c *fiber.Ctx) error {
		s := sessions.Get(c.UserContext(), middleware.UserID(c))
		return streamQuest(c, s.Quest, QuestStreamInterval, questKeepaliveTicks)
	})
}

// activeStreams counts quest stream writers still running.
var activeStreams atomic.Int64

// ActiveQuestStreams is the number of open quest SSE connections.
func ActiveQuestStreams() int64 {
	return activeStreams.Load()
}

// streamQuest pushes a `quest` event whenever the snapshot changes and a comment
// keepalive every keepaliveTicks idle ticks, so a gone client shows up as a failed flush.
// Once the quest is complete and no video is playing it sends a final `complete` event and ends.
func streamQuest(c *fiber.Ctx, quest *services.QuestEngine, every time.Duration, keepaliveTicks int) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		activeStreams.Add(1)
		defer activeStreams.Add(-1)

		ticker := time.NewTicker(every)
		defer ticker.Stop()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		var last *services.QuestSnapshot
		idle := 0
		for {
			snap := quest.Snapshot()
			switch {
			case last == nil || !reflect.DeepEqual(*last, snap):
				payload, _ := json.Marshal(snap)
				fmt.Fprintf(w, "event: quest\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// client disconnected
					return
				}
				last = &snap
				idle = 0
			case idle >= keepaliveTicks:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
				idle = 0
			default:
				idle++
			}

			if snap.Completed && snap.Video.State == services.VideoIdle {
				ack, _ := json.Marshal(snap.Acknowledgment)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", ack)
				if err := w.Flush(); err != nil {
					log.Printf("[SSE] final flush failed: %v", err)
				}
				return
			}

			select {
			case <-ticker.C:
			case <-done:
				return
			}
		}
	})

	return nil
}
