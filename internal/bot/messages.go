package bot

import (
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lunhatthanh83-boop/bottele/internal/probe"
)

const (
	welcomeText      = "Welcome\n\nTap Login to continue."
	menuText         = "Cookie Scanner Bot Menu\n\nChoose an option:"
	loginMenuText    = "Login Menu\n\nChoose an option:"
	helpText         = "Help\n\nYou must create an account and then log in before using the bot."
	privateBlockText = "You must join our channel chat to use the bot."
	noPermissionText = "You don't have permission to use this command!"
	contactOwnerURL  = "https://t.me/TSP1K33"
)

func startKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Login", "login_menu")),
	)
	return &kb
}

func loginKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Create Account", "create_account")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Help", "help_menu")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", "back_start")),
	)
	return &kb
}

func (h *Handler) mainMenuKeyboard(userID string) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Services List", "services_list"),
			tgbotapi.NewInlineKeyboardButtonData("Scan All Services", "scan_all"),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Hotmail Checker", "mail_checker")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Check Plan", "check_plan"),
			tgbotapi.NewInlineKeyboardButtonData("Buy VIP", "buy_vip"),
		),
	}
	if h.isAdmin(userID) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Admin Panel", "admin_panel")))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func (h *Handler) servicesKeyboard() *tgbotapi.InlineKeyboardMarkup {
	ids := h.registry.IDs()
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(ids); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(h.registry.DisplayName(ids[i]), "service_"+ids[i]),
		}
		if i+1 < len(ids) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(h.registry.DisplayName(ids[i+1]), "service_"+ids[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", "main_menu")))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func backKeyboard(target string) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", target)),
	)
	return &kb
}

func (h *Handler) privateBlockKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Join Channel Chat", h.channelInviteLink)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Main Menu", "main_menu")),
	)
	return &kb
}

func serviceSelectionText(displayName string) string {
	return fmt.Sprintf(
		"Scanning Config\n\n"+
			"Selected: %s\n"+
			"Requirement: .txt or .zip\n"+
			"Type: Cookie File\n\n"+
			"Now send a .txt or .zip cookie file to start the scanning process.",
		displayName,
	)
}

const mailCheckerIntroText = "Hotmail Checker\n\n" +
	"Format: mail:pass\n" +
	"Extension: .txt only\n\n" +
	"Please send a .txt file containing accounts in mail:pass format, one per line."

func mailProgressText(total, checked, live, die int, done bool) string {
	const barLength = 20
	filled := 0
	percent := 0
	if total > 0 {
		filled = barLength * checked / total
		percent = checked * 100 / total
	}
	bar := "[" + strings.Repeat("#", filled) + strings.Repeat(".", barLength-filled) + "]"
	status := "Checking..."
	if done {
		status = "Task Completed!"
	}
	return fmt.Sprintf(
		"Checking Status\n\n"+
			"Total   : %d\n"+
			"Checked : %d\n"+
			"LIVE    : %d\n"+
			"DIE     : %d\n\n"+
			"Progress: %s %d%%\n"+
			"Status: %s",
		total, checked, live, die, bar, percent, status,
	)
}

func keyCreatedText(key, duration string, maxUsers int) string {
	return fmt.Sprintf(
		"Key created successfully!\n\n"+
			"Key: %s\n"+
			"Duration: %s\n"+
			"Max Users: %d\n\n"+
			"Users activate it with /activatekey",
		key, duration, maxUsers,
	)
}

const invalidKeyText = "Invalid key.\n\n" +
	"The key you entered is incorrect or does not exist.\n" +
	"Please check your key again or contact admin for support."

func keyDeniedText(key, remainingSlots, expiry string) string {
	return fmt.Sprintf(
		"Access denied.\n\n"+
			"Key: %s\n"+
			"Reason: Key has expired or reached maximum usage.\n"+
			"Remaining slots: %s\n"+
			"Expiry: %s",
		key, remainingSlots, expiry,
	)
}

func keyActivatedText(key string, remaining, maxUsers int) string {
	return fmt.Sprintf(
		"Your key has been activated successfully!\n\n"+
			"Key: %s\n"+
			"Remaining slots: %d/%d",
		key, remaining, maxUsers,
	)
}

func keyActivatedAdminText(key, firstName, username, userID, when string, remaining, maxUsers int) string {
	return fmt.Sprintf(
		"Key activation notification\n\n"+
			"Key: %s\n"+
			"Activated by: %s (@%s)\n"+
			"User ID: %s\n"+
			"Time: %s\n"+
			"Remaining slots: %d/%d",
		key, firstName, username, userID, when, remaining, maxUsers,
	)
}

func statusIcon(status probe.Status) string {
	switch status {
	case probe.StatusSuccess:
		return "✅"
	case probe.StatusDead:
		return "❌"
	default:
		return ""
	}
}

func statusText(status probe.Status) string {
	switch status {
	case probe.StatusSuccess:
		return "Valid cookie."
	case probe.StatusDead:
		return "Invalid or expired cookie."
	case probe.StatusNoCookies:
		return "No cookies found for this service."
	case probe.StatusError:
		return "Error while checking cookie."
	default:
		return "Unknown cookie status."
	}
}

var filenameSpaces = regexp.MustCompile(`\s+`)

// cleanFilename strips path separators and squeezes whitespace so user
// supplied names are safe to echo and embed in archives.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = filenameSpaces.ReplaceAllString(name, "_")
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}
