package entities

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IDLength is the length of every opaque record identifier.
const IDLength = 12

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a 12-character opaque identifier drawn from a random UUID.
func NewID() string {
	raw := uuid.New()
	return strings.ToLower(idEncoding.EncodeToString(raw[:]))[:IDLength]
}

// TelegramUsername is the account name bound to a telegram user id.
func TelegramUsername(telegramUserID int64) string {
	return fmt.Sprintf("tg_%d", telegramUserID)
}

// TelegramFirstName is the placeholder first name of a telegram-provisioned account.
func TelegramFirstName(telegramUserID int64) string {
	return fmt.Sprintf("User_%d", telegramUserID)
}
