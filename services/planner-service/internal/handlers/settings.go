package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/clevery/dayplanner/libs/httpx"
	"github.com/clevery/dayplanner/services/planner-service/internal/catalog"
	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/clevery/dayplanner/services/planner-service/internal/outbox"
	"github.com/clevery/dayplanner/services/planner-service/internal/storage"
	"github.com/jackc/pgx/v5"
)

type settingsBody struct {
	DarkMode  bool   `json:"dark_mode"`
	Language  string `json:"language"`
	Timezone  string `json:"timezone"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func settingsResponse(s model.Settings) settingsBody {
	body := settingsBody{DarkMode: s.DarkMode, Language: s.Language, Timezone: s.Timezone}
	if !s.UpdatedAt.IsZero() {
		body.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return body
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}
	s, err := h.store.GetSettings(r.Context(), accountID)
	if storage.IsNotFound(err) {
		s, err = model.DefaultSettings(accountID), nil
	}
	if err != nil {
		h.fail(w, r, "failed to load settings", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, settingsResponse(s))
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}
	var req struct {
		DarkMode *bool  `json:"dark_mode"`
		Language string `json:"language"`
		Timezone string `json:"timezone"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.store.GetSettings(r.Context(), accountID)
	if storage.IsNotFound(err) {
		s, err = model.DefaultSettings(accountID), nil
	}
	if err != nil {
		h.fail(w, r, "failed to load settings", err)
		return
	}
	if req.DarkMode != nil {
		s.DarkMode = *req.DarkMode
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		s.Language = lang
	}
	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			http.Error(w, "invalid timezone", http.StatusBadRequest)
			return
		}
		s.Timezone = tz
	}

	ctx := r.Context()
	err = h.store.InTx(ctx, func(tx pgx.Tx) error {
		if err := h.store.UpsertSettings(ctx, tx, &s); err != nil {
			return err
		}
		return h.emit(ctx, tx, "account", accountID, outbox.SettingsUpdated, map[string]any{
			"account_id": accountID,
			"dark_mode":  s.DarkMode,
			"language":   s.Language,
			"timezone":   s.Timezone,
		})
	})
	if err != nil {
		h.fail(w, r, "failed to update settings", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, settingsResponse(s))
}

func (h *Handler) Goals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var cats []catalog.GoalCategory
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		c, ok := catalog.ParseGoalCategory(raw)
		if !ok {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}
		cats = append(cats, c)
	}
	httpx.WriteJSON(w, http.StatusOK, catalog.Goals(cats...))
}

func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var cats []catalog.TaskCategory
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		c, ok := catalog.ParseTaskCategory(raw)
		if !ok {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}
		cats = append(cats, c)
	}
	httpx.WriteJSON(w, http.StatusOK, catalog.Tasks(cats...))
}
