package log

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"staybook/internal/domain"
)

type entry struct {
	TS        string         `json:"ts"`
	Level     string         `json:"level"`
	ReqID     string         `json:"req_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Action    string         `json:"action,omitempty"`
	Status    int            `json:"status,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Field names whose values never reach the log: passwords, bearer and reset
// tokens, and card data entered at checkout.
var sensitive = []string{"password", "token", "card", "cvc", "expiry"}

const redacted = "[redacted]"

func scrub(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return fields
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		lk := strings.ToLower(k)
		for _, s := range sensitive {
			if strings.Contains(lk, s) {
				v = redacted
				break
			}
		}
		out[k] = v
	}
	return out
}

// write emits one JSON line. c may be nil for work done outside a request.
func write(e entry, c *fiber.Ctx, err error) {
	e.TS = time.Now().UTC().Format(time.RFC3339)
	e.Fields = scrub(e.Fields)
	if c != nil {
		e.IP = c.IP()
		e.Method = c.Method()
		e.Path = c.Path()
		e.Status = c.Response().StatusCode()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e.ReqID = rid
		}
		if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
			e.UserID = u.ID
		}
	}
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(entry{Level: "info", Action: action, Fields: fields}, c, nil)
}

// Audit records a state change: sign-in, booking, listing edits, role changes.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(entry{Level: "audit", Action: action, Fields: fields}, c, nil)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(entry{Level: "warn", Action: action, Fields: fields}, c, nil)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(entry{Level: "error", Action: action, Fields: fields}, c, err)
}

// Timed logs action at info level with the time elapsed since start.
func Timed(c *fiber.Ctx, action string, start time.Time, fields map[string]any) {
	write(entry{Level: "info", Action: action, LatencyMs: time.Since(start).Milliseconds(), Fields: fields}, c, nil)
}
