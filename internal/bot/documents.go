package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/mailcheck"
	"github.com/lunhatthanh83-boop/bottele/internal/probe"
	"github.com/lunhatthanh83-boop/bottele/internal/scanner"
)

const maxDocumentBytes = 20 << 20

func (h *Handler) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := h.userID(msg.From)

	if !h.tracker.IsRegistered(userID) {
		h.replyMarkup(msg.Chat.ID, welcomeText, startKeyboard())
		return
	}
	if h.restrictedPrivate(userID, msg.Chat.ID) {
		h.replyMarkup(msg.Chat.ID, privateBlockText, h.privateBlockKeyboard())
		return
	}

	if h.session(msg.Chat.ID).mode == modeMailChecker {
		h.handleMailDocument(ctx, msg, userID)
		return
	}
	h.handleCookieDocument(ctx, msg, userID)
}

func (h *Handler) handleCookieDocument(ctx context.Context, msg *tgbotapi.Message, userID string) {
	sess := h.session(msg.Chat.ID)
	if sess.target == "" {
		h.replyMarkup(msg.Chat.ID, "Please choose a service first from the menu.", backKeyboard("main_menu"))
		return
	}

	allowed, reason, err := h.tracker.CanScan(userID)
	if err != nil {
		h.logger.Error("Quota check failed", zap.String("user_id", userID), zap.Error(err))
		h.reply(msg.Chat.ID, "Could not check your plan right now, please try again.")
		return
	}
	if !allowed {
		if h.metrics != nil {
			h.metrics.RecordScanDenied()
		}
		h.replyMarkup(msg.Chat.ID, reason, backKeyboard("main_menu"))
		return
	}

	status := h.reply(msg.Chat.ID, "The bot is scanning your file, please wait.")

	fileName := cleanFilename(msg.Document.FileName)
	if fileName == "" {
		fileName = "cookie.txt"
	}
	data, err := h.download(ctx, msg.Document.FileID)
	if err != nil {
		h.logger.Error("Downloading document failed", zap.String("file", fileName), zap.Error(err))
		h.edit(msg.Chat.ID, status.MessageID, "Could not download your file, please try again.")
		return
	}

	var payloads []scanner.Payload
	ext := strings.ToLower(path.Ext(fileName))
	switch ext {
	case ".zip":
		payloads, err = scanner.ExtractContainers(data)
		if err != nil {
			if errors.Is(err, scanner.ErrNoContainers) {
				h.edit(msg.Chat.ID, status.MessageID, "No .txt cookie files found in the .zip")
			} else {
				h.edit(msg.Chat.ID, status.MessageID, "Invalid .zip file.")
			}
			return
		}
	case ".txt":
		payloads = []scanner.Payload{{Name: fileName, Content: data}}
	default:
		h.edit(msg.Chat.ID, status.MessageID, "Please send a .txt or .zip file.")
		return
	}

	report, err := h.scanner.Scan(ctx, payloads, sess.target)
	if err != nil {
		h.edit(msg.Chat.ID, status.MessageID, fmt.Sprintf("Error: %v", err))
		return
	}

	if ext == ".txt" {
		h.edit(msg.Chat.ID, status.MessageID, h.singleFileSummary(fileName, sess.target, report))
	} else {
		h.edit(msg.Chat.ID, status.MessageID, h.archiveSummary(sess.target, report))
	}

	h.sendLiveArchive(msg.Chat.ID, report)
	h.settleScan(userID, report.Processed)
}

// singleFileSummary renders the per-target verdict lines for one
// uploaded .txt container.
func (h *Handler) singleFileSummary(fileName, targetID string, report *scanner.Report) string {
	if msg, ok := report.FileErrors[fileName]; ok {
		return "Error: " + msg
	}
	byTarget := report.Files[fileName]

	if targetID == scanner.TargetAll {
		lines := []string{fmt.Sprintf("Scan Results for %s:", fileName)}
		for _, id := range h.registry.IDs() {
			res, ok := byTarget[id]
			if !ok {
				continue
			}
			line := fmt.Sprintf("%s %s: %s", statusIcon(res.Status), h.registry.DisplayName(id), statusText(res.Status))
			if plan := probe.PublicPlanInfo(res.PlanInfo); plan != "" {
				line += " • " + plan
			}
			lines = append(lines, strings.TrimSpace(line))
		}
		if len(lines) == 1 {
			lines = append(lines, "No target cookies found.")
		}
		return strings.Join(lines, "\n")
	}

	res := byTarget[targetID]
	if res == nil {
		return "No target cookies found."
	}
	verdict := strings.TrimSpace(fmt.Sprintf("%s %s", statusIcon(res.Status), statusText(res.Status)))
	summary := fileName + "\n" + verdict
	if plan := probe.PublicPlanInfo(res.PlanInfo); plan != "" {
		summary += "\n" + plan
	}
	return summary
}

func (h *Handler) archiveSummary(targetID string, report *scanner.Report) string {
	var lines []string
	if targetID == scanner.TargetAll {
		for _, id := range h.registry.IDs() {
			if entries := report.Live[id]; len(entries) > 0 {
				lines = append(lines, fmt.Sprintf("%s: %d live cookies", h.registry.DisplayName(id), len(entries)))
			}
		}
	} else if n := report.LiveCount(); n > 0 {
		lines = append(lines, fmt.Sprintf("%s: %d live cookies", h.registry.DisplayName(targetID), n))
	}
	if len(lines) == 0 {
		return "Scan completed: No live cookies found."
	}
	return "Scan completed:\n" + strings.Join(lines, "\n")
}

func (h *Handler) sendLiveArchive(chatID int64, report *scanner.Report) {
	data, name, err := scanner.BuildLiveArchive(report, h.registry.DisplayName)
	if err != nil {
		h.logger.Error("Building live archive failed", zap.Error(err))
		h.reply(chatID, fmt.Sprintf("Error creating archive: %v", err))
		return
	}
	if data == nil {
		return
	}
	h.sendDocument(chatID, name, data, fmt.Sprintf("Live cookies archive (%d services)", len(report.Live)))
	if h.metrics != nil {
		h.metrics.RecordLiveArchive()
	}
}

// settleScan charges the quota and daily counter once per finished batch.
func (h *Handler) settleScan(userID string, processed int) {
	if processed <= 0 {
		return
	}
	if err := h.tracker.RecordScan(userID, processed); err != nil {
		h.logger.Error("Recording scan failed", zap.String("user_id", userID), zap.Error(err))
	}
	today := time.Now().UTC().Format("2006-01-02")
	if _, err := h.stats.AddScans(today, processed); err != nil {
		h.logger.Error("Recording daily stats failed", zap.Error(err))
	}
	if h.metrics != nil {
		h.metrics.RecordFilesProcessed(processed)
	}
}

func (h *Handler) handleMailDocument(ctx context.Context, msg *tgbotapi.Message, userID string) {
	allowed, reason, err := h.tracker.CanScan(userID)
	if err != nil {
		h.logger.Error("Quota check failed", zap.String("user_id", userID), zap.Error(err))
		h.reply(msg.Chat.ID, "Could not check your plan right now, please try again.")
		return
	}
	if !allowed {
		if h.metrics != nil {
			h.metrics.RecordScanDenied()
		}
		h.replyMarkup(msg.Chat.ID, reason, backKeyboard("main_menu"))
		return
	}

	fileName := cleanFilename(msg.Document.FileName)
	if !strings.EqualFold(path.Ext(fileName), ".txt") {
		h.reply(msg.Chat.ID, "Please send a .txt file containing hotmail in format mail:pass.")
		return
	}

	data, err := h.download(ctx, msg.Document.FileID)
	if err != nil {
		h.logger.Error("Downloading document failed", zap.String("file", fileName), zap.Error(err))
		h.reply(msg.Chat.ID, "Could not download your file, please try again.")
		return
	}

	creds := mailcheck.ParseList(string(data))
	if len(creds) == 0 {
		h.reply(msg.Chat.ID, "File does not contain any hotmail in mail:pass format.")
		return
	}

	total := len(creds)
	status := h.reply(msg.Chat.ID, mailProgressText(total, 0, 0, 0, false))

	var liveLines []string
	die := 0
	for i, cred := range creds {
		if ctx.Err() != nil {
			return
		}
		if h.mail.Check(ctx, cred) == mailcheck.VerdictLive {
			liveLines = append(liveLines, cred.Raw)
		} else {
			die++
		}
		done := i+1 == total
		if done || h.editLimiter.Allow() {
			h.edit(msg.Chat.ID, status.MessageID, mailProgressText(total, i+1, len(liveLines), die, done))
		}
	}

	if len(liveLines) > 0 {
		body := strings.Join(liveLines, "\n")
		h.sendDocument(msg.Chat.ID, "hotmail_valid.txt", []byte(body), fmt.Sprintf("Valid: %d/%d", len(liveLines), total))
	} else {
		h.reply(msg.Chat.ID, "No valid hotmail accounts found.")
	}

	h.settleScan(userID, 1)
	h.clearSession(msg.Chat.ID)
}

// download fetches a document's bytes through the bot file API.
func (h *Handler) download(ctx context.Context, fileID string) ([]byte, error) {
	if h.fetchFile != nil {
		return h.fetchFile(ctx, fileID)
	}

	url, err := h.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}
