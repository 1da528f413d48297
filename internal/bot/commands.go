package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/license"
	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

func (h *Handler) cmdStart(msg *tgbotapi.Message) {
	userID := h.userID(msg.From)

	// Private chat is a paid surface; normal users are pointed at the
	// public channel instead.
	if msg.Chat.ID > 0 && h.restrictedPrivate(userID, msg.Chat.ID) {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Contact Owner", contactOwnerURL)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Join Channel Chat", h.channelInviteLink)),
		)
		h.replyMarkup(msg.Chat.ID,
			"Your current plan is Normal.\n\n"+
				"To use this bot in private chat, please contact the owner to buy VIP\n"+
				"or join our channel chat to use the bot for free.",
			&kb)
		return
	}

	h.replyMarkup(msg.Chat.ID, welcomeText, startKeyboard())
}

func (h *Handler) cmdMenu(msg *tgbotapi.Message) {
	userID := h.userID(msg.From)
	if !h.tracker.IsRegistered(userID) {
		h.replyMarkup(msg.Chat.ID, welcomeText, startKeyboard())
		return
	}
	h.replyMarkup(msg.Chat.ID, menuText, h.mainMenuKeyboard(userID))
}

// cmdCheckPlan renders the account summary. When messageID is non-zero
// the existing message is edited in place, which is how the inline
// button variant behaves.
func (h *Handler) cmdCheckPlan(chatID int64, userID string, messageID int) {
	if !h.tracker.IsRegistered(userID) {
		h.replyMarkup(chatID, welcomeText, startKeyboard())
		return
	}
	acc, err := h.tracker.Account(userID)
	if err != nil {
		h.logger.Error("Loading account failed", zap.String("user_id", userID), zap.Error(err))
		h.reply(chatID, "Could not load your plan right now, please try again.")
		return
	}

	planText := "Normal"
	maxFiles := strconv.Itoa(h.tracker.Limit())
	if acc.Plan == store.PlanVIP {
		planText = "VIP"
		maxFiles = "Unlimited"
	}

	var extra strings.Builder
	now := time.Now().UTC()
	if acc.Plan == store.PlanVIP && acc.VIPExpiry != nil {
		remaining := acc.VIPExpiry.Sub(now)
		if remaining > 0 {
			days := int(remaining / (24 * time.Hour))
			hours := int(remaining%(24*time.Hour)) / int(time.Hour)
			fmt.Fprintf(&extra, "\nVIP expires in: %d days %d hours", days, hours)
		} else {
			extra.WriteString("\nVIP expired")
		}
	}
	if acc.Plan == store.PlanNormal {
		remaining := acc.LastReset.Add(24 * time.Hour).Sub(now)
		hours := int(remaining / time.Hour)
		minutes := int(remaining%time.Hour) / int(time.Minute)
		fmt.Fprintf(&extra, "\nReset in: %d hours %d minutes", hours, minutes)
	}

	text := fmt.Sprintf(
		"Your Plan Information:\n\n"+
			"Plan: %s\n"+
			"Used: %d/%s files%s\n\n"+
			"VIP Plan Pricing:\n"+
			"• 1 Week: 50,000 VND - 3,79 USDT\n"+
			"• 3 Weeks: 120,000 VND - 5,69 USDT\n"+
			"• 1 Month: 150,000 VND - 7,59 USDT\n\n"+
			"Contact Owner @TSP1K33 to upgrade!",
		planText, acc.FileCount, maxFiles, extra.String(),
	)

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Contact Owner", contactOwnerURL),
			tgbotapi.NewInlineKeyboardButtonData("Buy VIP Plan", "buy_vip"),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", "main_menu")),
	)
	if messageID != 0 {
		h.editMarkup(chatID, messageID, text, &kb)
	} else {
		h.replyMarkup(chatID, text, &kb)
	}
}

func (h *Handler) cmdActivateKey(msg *tgbotapi.Message) {
	userID := h.userID(msg.From)
	if !h.tracker.IsRegistered(userID) {
		h.replyMarkup(msg.Chat.ID, welcomeText, startKeyboard())
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		h.reply(msg.Chat.ID, "Usage: /activatekey <key>\nExample: /activatekey ABCD1-EFGH2-IJKL3-MNOP4")
		return
	}
	token := strings.ToUpper(strings.TrimSpace(args[0]))

	result, err := h.licenses.Activate(token, userID, msg.From.UserName, msg.From.FirstName)
	if err != nil {
		h.recordActivation("denied")
		switch {
		case errors.Is(err, license.ErrKeyNotFound):
			h.reply(msg.Chat.ID, invalidKeyText)
		case errors.Is(err, license.ErrKeyExpired), errors.Is(err, license.ErrKeyFull):
			slots := "0/0"
			expiry := "Unknown"
			if key, ok := h.licenses.Get(token); ok {
				slots = fmt.Sprintf("%d/%d", key.Remaining(), key.MaxUsers)
				expiry = key.ExpiresAt.Format("2006-01-02 15:04:05")
			}
			h.reply(msg.Chat.ID, keyDeniedText(token, slots, expiry))
		case errors.Is(err, license.ErrAlreadyActivated):
			h.reply(msg.Chat.ID, "You have already activated this key.")
		default:
			h.logger.Error("Key activation failed", zap.String("key", token), zap.Error(err))
			h.reply(msg.Chat.ID, "Error activating key, please try again.")
		}
		return
	}

	h.recordActivation("success")
	h.reply(msg.Chat.ID, keyActivatedText(token, result.Remaining, result.Key.MaxUsers))

	if adminChat, err := strconv.ParseInt(h.adminID, 10, 64); err == nil {
		last := result.Key.ActivatedBy[len(result.Key.ActivatedBy)-1]
		h.reply(adminChat, keyActivatedAdminText(
			token, last.FirstName, last.Username, last.UserID,
			last.ActivatedAt.Format("2006-01-02 15:04:05"),
			result.Remaining, result.Key.MaxUsers,
		))
	}
}

func (h *Handler) recordActivation(result string) {
	if h.metrics != nil {
		h.metrics.RecordKeyActivation(result)
	}
}

func (h *Handler) cmdAdminStats(chatID int64, userID string) {
	if !h.isAdmin(userID) {
		h.reply(chatID, noPermissionText)
		return
	}

	accounts := h.accounts.All()
	totalUsers := len(accounts)
	normalUsers, vipUsers, totalScans, expiringVIP := 0, 0, 0, 0
	now := time.Now().UTC()
	for _, acc := range accounts {
		switch acc.Plan {
		case store.PlanVIP:
			vipUsers++
			if acc.VIPExpiry != nil && acc.VIPExpiry.Sub(now) < 7*24*time.Hour {
				expiringVIP++
			}
		default:
			normalUsers++
		}
		totalScans += acc.FileCount
	}

	var table strings.Builder
	header := fmt.Sprintf("%-15s%-8s%-20s", "User ID", "Plan", "VIP Expiry")
	table.WriteString(header + "\n" + strings.Repeat("-", len(header)))
	for _, acc := range accounts {
		expiry := "-"
		if acc.VIPExpiry != nil {
			expiry = acc.VIPExpiry.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&table, "\n%-15s%-8s%-20s", acc.ID, acc.Plan, expiry)
	}

	daily := h.stats.Snapshot(now.Format("2006-01-02"))
	h.reply(chatID, fmt.Sprintf(
		"System Statistics:\n\n"+
			"Total users: %d\n"+
			"Normal users: %d\n"+
			"VIP users: %d\n"+
			"Total scans: %d\n"+
			"Scans today: %d\n"+
			"VIP expiring soon (7d): %d\n\n%s",
		totalUsers, normalUsers, vipUsers, totalScans, daily.Scans, expiringVIP, table.String(),
	))
}

func (h *Handler) cmdSetVIP(msg *tgbotapi.Message) {
	userID := h.userID(msg.From)
	if !h.isAdmin(userID) {
		h.reply(msg.Chat.ID, noPermissionText)
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		h.reply(msg.Chat.ID, "Usage: /setvip <user_id> <days>")
		return
	}
	days, err := strconv.Atoi(args[1])
	if err != nil || days < 1 {
		h.reply(msg.Chat.ID, "Days must be a positive number.")
		return
	}
	if err := h.tracker.GrantVIP(args[0], days); err != nil {
		h.logger.Error("Setting vip failed", zap.String("user_id", args[0]), zap.Error(err))
		h.reply(msg.Chat.ID, "Failed to set VIP.")
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("Set VIP for user %s for %d days.", args[0], days))
}

func (h *Handler) cmdDelVIP(msg *tgbotapi.Message) {
	userID := h.userID(msg.From)
	if !h.isAdmin(userID) {
		h.reply(msg.Chat.ID, noPermissionText)
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		h.reply(msg.Chat.ID, "Usage: /delvip <user_id>")
		return
	}
	if _, ok := h.accounts.Get(args[0]); !ok {
		h.reply(msg.Chat.ID, "User not found.")
		return
	}
	if err := h.tracker.RevokeVIP(args[0]); err != nil {
		h.logger.Error("Removing vip failed", zap.String("user_id", args[0]), zap.Error(err))
		h.reply(msg.Chat.ID, "Failed to remove VIP.")
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("Removed VIP from user %s.", args[0]))
}

func (h *Handler) cmdGetKey(msg *tgbotapi.Message) {
	userID := h.userID(msg.From)
	if !h.isAdmin(userID) {
		h.reply(msg.Chat.ID, noPermissionText)
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		h.reply(msg.Chat.ID, "Usage: /getkey <duration> <max_users>\nExample: /getkey 1hours 1 or /getkey 1day 5")
		return
	}

	maxUsers, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		h.reply(msg.Chat.ID, "Max users must be a number.")
		return
	}
	if maxUsers <= 0 {
		h.reply(msg.Chat.ID, "Max users must be greater than 0.")
		return
	}
	durationSpec := strings.Join(args[:len(args)-1], " ")

	key, err := h.licenses.Generate(durationSpec, maxUsers, userID)
	if err != nil {
		h.logger.Error("Key generation failed", zap.Error(err))
		h.reply(msg.Chat.ID, fmt.Sprintf("Error creating key: %v", err))
		return
	}
	formatted := license.FormatDuration(license.ParseDuration(durationSpec))
	h.reply(msg.Chat.ID, keyCreatedText(key.Key, formatted, maxUsers))
}

func (h *Handler) cmdRemoveKey(msg *tgbotapi.Message) {
	userID := h.userID(msg.From)
	if !h.isAdmin(userID) {
		h.reply(msg.Chat.ID, noPermissionText)
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		h.reply(msg.Chat.ID, "Usage: /removekey <key>\nExample: /removekey ABCD1-EFGH2-IJKL3-MNOP4")
		return
	}
	token := strings.ToUpper(strings.TrimSpace(args[0]))

	count, err := h.licenses.Remove(token)
	if err != nil {
		if errors.Is(err, license.ErrKeyNotFound) {
			h.reply(msg.Chat.ID, fmt.Sprintf("Key %s not found.", token))
			return
		}
		h.logger.Error("Key removal failed", zap.String("key", token), zap.Error(err))
		h.reply(msg.Chat.ID, "Error removing key.")
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("Key removed successfully!\n\nKey: %s\nActivated users: %d", token, count))
}
