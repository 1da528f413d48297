package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

const ltcWalletAddress = "LbqPiubpXWrL27VMUGxu2AhdvQmVA37LEL"

func (h *Handler) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		h.logger.Debug("Answering callback failed", zap.Error(err))
	}
	if query.From == nil || query.Message == nil {
		return
	}

	userID := h.userID(query.From)
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	data := query.Data

	switch data {
	case "back_start":
		h.editMarkup(chatID, messageID, welcomeText, startKeyboard())
		return
	case "login_menu":
		if h.tracker.IsRegistered(userID) {
			h.editMarkup(chatID, messageID, menuText, h.mainMenuKeyboard(userID))
		} else {
			h.editMarkup(chatID, messageID, loginMenuText, loginKeyboard())
		}
		return
	case "help_menu":
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Create Account", "create_account")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Login", "login_menu")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", "back_start")),
		)
		h.editMarkup(chatID, messageID, helpText, &kb)
		return
	case "create_account":
		h.createAccount(query)
		return
	}

	if !h.tracker.IsRegistered(userID) {
		h.editMarkup(chatID, messageID,
			"Please create an account to use the bot.\nTap Login to continue.",
			startKeyboard())
		return
	}

	switch {
	case data == "main_menu":
		h.clearSession(chatID)
		h.editMarkup(chatID, messageID, menuText, h.mainMenuKeyboard(userID))

	case data == "services_list":
		h.editMarkup(chatID, messageID, "Select service:", h.servicesKeyboard())

	case data == "scan_all":
		h.setSession(chatID, "", "all")
		h.editMarkup(chatID, messageID, serviceSelectionText("Scan All Services"), backKeyboard("main_menu"))

	case strings.HasPrefix(data, "service_"):
		targetID := strings.TrimPrefix(data, "service_")
		h.setSession(chatID, "", targetID)
		h.editMarkup(chatID, messageID, serviceSelectionText(h.registry.DisplayName(targetID)), backKeyboard("services_list"))

	case data == "mail_checker":
		h.setSession(chatID, modeMailChecker, "")
		h.editMarkup(chatID, messageID, mailCheckerIntroText, backKeyboard("main_menu"))

	case data == "check_plan":
		h.cmdCheckPlan(chatID, userID, messageID)

	case data == "buy_vip":
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Copy LTC", "copy_ltc")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", "main_menu")),
		)
		h.editMarkup(chatID, messageID, fmt.Sprintf(
			"VIP Plan Pricing:\n"+
				"• 1 Week: 50,000 VND\n"+
				"• 3 Weeks: 120,000 VND\n"+
				"• 1 Month: 150,000 VND\n\n"+
				"Payment Method:\n"+
				"• Litecoin (LTC)\n"+
				"• LTC Wallet: %s\n\n"+
				"After payment, send the transaction hash and your Telegram ID to @TSP1K33.",
			ltcWalletAddress), &kb)

	case data == "copy_ltc":
		h.reply(chatID, fmt.Sprintf("LTC Address: %s", ltcWalletAddress))

	case data == "admin_panel":
		if !h.isAdmin(userID) {
			h.edit(chatID, messageID, "You don't have permission to use this feature.")
			return
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Stats", "admin_stats")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Set VIP", "admin_set_vip")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Delete VIP", "admin_del_vip")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Get Key", "admin_get_key")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Remove Key", "admin_remove_key")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", "main_menu")),
		)
		h.editMarkup(chatID, messageID, "Admin Panel\n\nChoose an option:", &kb)

	case data == "admin_stats":
		h.cmdAdminStats(chatID, userID)

	case data == "admin_set_vip":
		h.edit(chatID, messageID, "Use command: /setvip <user_id> <days>")

	case data == "admin_del_vip":
		h.edit(chatID, messageID, "Use command: /delvip <user_id>")

	case data == "admin_get_key":
		h.edit(chatID, messageID, "Use command: /getkey <duration> <max_users>\nExample: /getkey 1hours 1 or /getkey 1day 5")

	case data == "admin_remove_key":
		h.edit(chatID, messageID, "Use command: /removekey <key>\nExample: /removekey ABCD1-EFGH2-IJKL3-MNOP4")
	}
}

func (h *Handler) createAccount(query *tgbotapi.CallbackQuery) {
	userID := h.userID(query.From)
	chatID := query.Message.Chat.ID

	acc, err := h.tracker.Register(userID)
	if err != nil {
		h.logger.Error("Registration failed", zap.String("user_id", userID), zap.Error(err))
		h.edit(chatID, query.Message.MessageID, "Could not create your account, please try again.")
		return
	}

	planText := "Normal"
	if acc.Plan == store.PlanVIP {
		planText = "VIP"
	}
	joined := ""
	if acc.JoinDate != nil {
		joined = acc.JoinDate.Format("2006-01-02 15:04:05")
	}
	name := query.From.FirstName
	if name == "" {
		name = query.From.UserName
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Help", "help_menu")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Main Menu", "main_menu")),
	)
	h.editMarkup(chatID, query.Message.MessageID, fmt.Sprintf(
		"Account Created\n\nUser: %s\nUser ID: %s\nPlan: %s\nJoin Date: %s",
		name, userID, planText, joined), &kb)
}
