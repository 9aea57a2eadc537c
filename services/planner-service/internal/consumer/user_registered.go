package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/segmentio/kafka-go"
)

// UserRegisteredTopic is published by the external identity provider.
const UserRegisteredTopic = "identity.user.registered.v1"

type userRegistered struct {
	UserID   string `json:"user_id"`
	Language string `json:"language"`
	Timezone string `json:"timezone"`
}

// SettingsProvisioner creates settings unless the account already has them.
type SettingsProvisioner interface {
	ProvisionSettings(ctx context.Context, s model.Settings) (bool, error)
}

// UserRegisteredHandler provisions default settings for new accounts. A valid
// timezone or language in the event overrides the defaults.
func UserRegisteredHandler(store SettingsProvisioner, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt userRegistered
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			return Permanent(fmt.Errorf("decode %s: %w", UserRegisteredTopic, err))
		}
		accountID := strings.TrimSpace(evt.UserID)
		if accountID == "" {
			return Permanent(errors.New("user_id missing"))
		}

		settings := model.DefaultSettings(accountID)
		if lang := strings.TrimSpace(evt.Language); lang != "" {
			settings.Language = lang
		}
		if tz := strings.TrimSpace(evt.Timezone); tz != "" {
			if _, err := time.LoadLocation(tz); err == nil {
				settings.Timezone = tz
			} else {
				logger.Warn("ignoring unknown timezone", "account_id", accountID, "timezone", tz)
			}
		}

		created, err := store.ProvisionSettings(ctx, settings)
		if err != nil {
			return fmt.Errorf("provision settings: %w", err)
		}
		logger.Info("account settings provisioned", "account_id", accountID, "created", created, "timezone", settings.Timezone)
		return nil
	}
}
