package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"birthday_reminder_bot/internal/domain/gateway"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Ingestor consumes one raw inbound payload. It must never fail the request.
type Ingestor interface {
	HandleInbound(ctx context.Context, payload map[string]any)
}

// ScanRunner triggers a reminder scan on demand.
type ScanRunner interface {
	RunScan(ctx context.Context) error
}

// RecordCounter reports store counts for the diagnostic surface.
type RecordCounter interface {
	Counts() (personalLists, groups, records int)
}

// StatusInfo is the static configuration summary exposed on /status.
type StatusInfo struct {
	StoreDriver       string
	GatewayProvider   string
	GatewayConfigured bool
	ReminderLeadDays  int
}

// Handler is the thin HTTP layer over the ingest pipeline and the
// administrative/diagnostic surface. No reminder or dispatch logic lives here.
type Handler struct {
	ingest  Ingestor
	scanner ScanRunner
	gateway gateway.Client
	records RecordCounter
	status  StatusInfo
	log     *logrus.Entry
}

func NewHandler(ingest Ingestor, scanner ScanRunner, gw gateway.Client, records RecordCounter, status StatusInfo, log *logrus.Entry) *Handler {
	return &Handler{
		ingest:  ingest,
		scanner: scanner,
		gateway: gw,
		records: records,
		status:  status,
		log:     log,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", h.handleLiveness)
	r.Post("/webhook", h.handleWebhook)
	r.Get("/webhook", h.handleLiveness) // providers probe the webhook URL with GET
	r.Get("/status", h.handleStatus)
	r.Post("/admin/scan", h.handleScan)
	r.Post("/admin/probe", h.handleProbe)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (h *Handler) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Birthday Reminder Bot is running!"))
}

// handleWebhook always acknowledges the provider, whatever happens inside —
// a non-2xx answer would only trigger a redelivery storm upstream.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.log.WithError(err).Warn("Failed to read webhook body")
	} else if payload := decodePayload(body, r.Header.Get("Content-Type")); payload == nil {
		h.log.WithField("bytes", len(body)).Warn("Unparseable webhook payload dropped")
	} else {
		h.ingest.HandleInbound(r.Context(), payload)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	personalLists, groups, records := h.records.Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"store_driver":       h.status.StoreDriver,
		"gateway_provider":   h.status.GatewayProvider,
		"gateway_configured": h.status.GatewayConfigured,
		"reminder_lead_days": h.status.ReminderLeadDays,
		"personal_lists":     personalLists,
		"groups":             groups,
		"records":            records,
	})
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	h.log.Info("Manual reminder scan triggered")
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()
	if err := h.scanner.RunScan(ctx); err != nil {
		h.log.WithError(err).Error("Manual reminder scan failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "scan completed"})
}

type probeRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

func (h *Handler) handleProbe(w http.ResponseWriter, r *http.Request) {
	var req probeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Recipient == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recipient is required"})
		return
	}
	if req.Message == "" {
		req.Message = "probe " + uuid.NewString()
	}

	res, err := h.gateway.Send(r.Context(), req.Recipient, req.Message)
	if err != nil {
		h.log.WithError(err).WithField("recipient", req.Recipient).Warn("Probe send failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    res.Success,
		"message_id": res.MessageID,
		"error":      res.Error,
	})
}

// decodePayload tries JSON first, then a form-encoded body, then a
// best-effort recovery that extracts the outermost JSON object from raw
// bytes. Returns nil when nothing usable can be extracted.
func decodePayload(body []byte, contentType string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		return payload
	}

	if strings.Contains(contentType, "application/x-www-form-urlencoded") || strings.Contains(string(body), "=") {
		if values, err := url.ParseQuery(string(body)); err == nil && len(values) > 0 {
			payload = make(map[string]any, len(values))
			for k := range values {
				payload[k] = values.Get(k)
			}
			return payload
		}
	}

	start := strings.IndexByte(string(body), '{')
	end := strings.LastIndexByte(string(body), '}')
	if start >= 0 && end > start {
		if err := json.Unmarshal(body[start:end+1], &payload); err == nil {
			return payload
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
