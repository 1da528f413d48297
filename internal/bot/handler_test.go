package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/config"
	"github.com/lunhatthanh83-boop/bottele/internal/license"
	"github.com/lunhatthanh83-boop/bottele/internal/mailcheck"
	"github.com/lunhatthanh83-boop/bottele/internal/probe"
	"github.com/lunhatthanh83-boop/bottele/internal/quota"
	"github.com/lunhatthanh83-boop/bottele/internal/scanner"
	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

type fakeClient struct {
	mu       sync.Mutex
	texts    []string
	docNames []string
	nextID   int
}

func (f *fakeClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		f.texts = append(f.texts, v.Text)
	case tgbotapi.EditMessageTextConfig:
		f.texts = append(f.texts, v.Text)
	case tgbotapi.DocumentConfig:
		if fb, ok := v.File.(tgbotapi.FileBytes); ok {
			f.docNames = append(f.docNames, fb.Name)
		}
	}
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeClient) GetFileDirectURL(fileID string) (string, error) {
	return "http://127.0.0.1:0/" + fileID, nil
}

func (f *fakeClient) lastText(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		t.Fatalf("no messages were sent")
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeClient) anyTextContains(sub string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, text := range f.texts {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}

type fixture struct {
	handler *Handler
	client  *fakeClient
	tracker *quota.Tracker
}

const testAdminID = "900"

func newFixture(t *testing.T, targets map[string]config.TargetConfig) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	accounts, err := store.NewAccountStore(fs, "/data")
	if err != nil {
		t.Fatalf("NewAccountStore: %v", err)
	}
	keys, err := store.NewKeyStore(fs, "/data")
	if err != nil {
		t.Fatalf("NewKeyStore: %v", err)
	}
	stats, err := store.NewStatsStore(fs, "/data")
	if err != nil {
		t.Fatalf("NewStatsStore: %v", err)
	}

	logger := zap.NewNop()
	tracker := quota.NewTracker(accounts, config.QuotaConfig{ScanLimit: 50, ResetHours: 24}, testAdminID, logger)
	licenses := license.NewManager(keys, tracker, logger)
	registry := probe.NewRegistry(targets, config.ScannerConfig{})
	sc := scanner.New(registry, 2, logger, nil)
	mail := mailcheck.NewChecker("http://127.0.0.1:0", 1, logger, nil)

	client := &fakeClient{}
	h := NewHandler(Deps{
		Bot:               client,
		Scanner:           sc,
		Registry:          registry,
		Tracker:           tracker,
		Licenses:          licenses,
		Mail:              mail,
		Accounts:          accounts,
		Stats:             stats,
		Logger:            logger,
		AdminID:           testAdminID,
		ChannelInviteLink: "https://t.me/+example",
	})
	return &fixture{handler: h, client: client, tracker: tracker}
}

func command(userID, chatID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: "tester", FirstName: "Tester"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func callback(userID, chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: userID, UserName: "tester", FirstName: "Tester"},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}
}

func document(userID, chatID int64, fileName string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 2,
		From:      &tgbotapi.User{ID: userID, UserName: "tester", FirstName: "Tester"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Document:  &tgbotapi.Document{FileID: "file-1", FileName: fileName},
	}
}

func register(t *testing.T, fx *fixture, userID int64) {
	t.Helper()
	fx.handler.handleCallback(context.Background(), callback(userID, -500, "create_account"))
	if !fx.client.anyTextContains("Account Created") {
		t.Fatalf("registration did not confirm: %v", fx.client.texts)
	}
}

func TestUnregisteredUserGetsLoginPrompt(t *testing.T) {
	fx := newFixture(t, nil)
	fx.handler.handleMessage(context.Background(), command(42, -500, "/menu"))
	if got := fx.client.lastText(t); got != welcomeText {
		t.Fatalf("expected login prompt, got %q", got)
	}
}

func TestGetKeyRequiresAdmin(t *testing.T) {
	fx := newFixture(t, nil)
	register(t, fx, 42)
	fx.handler.handleMessage(context.Background(), command(42, -500, "/getkey 1day 2"))
	if got := fx.client.lastText(t); got != noPermissionText {
		t.Fatalf("expected permission denial, got %q", got)
	}
}

func TestKeyLifecycleThroughCommands(t *testing.T) {
	fx := newFixture(t, nil)
	register(t, fx, 42)

	fx.handler.handleMessage(context.Background(), command(900, -500, "/getkey 1day 2"))
	created := fx.client.lastText(t)
	if !strings.Contains(created, "Key created successfully!") || !strings.Contains(created, "Duration: 1 day") {
		t.Fatalf("unexpected creation message: %q", created)
	}

	// Pull the token out of the creation message.
	var token string
	for _, line := range strings.Split(created, "\n") {
		if strings.HasPrefix(line, "Key: ") {
			token = strings.TrimPrefix(line, "Key: ")
		}
	}
	if token == "" {
		t.Fatalf("token missing from message: %q", created)
	}

	fx.handler.handleMessage(context.Background(), command(42, -500, "/activatekey "+token))
	if !fx.client.anyTextContains("activated successfully") {
		t.Fatalf("activation confirmation missing: %v", fx.client.texts)
	}

	acc, err := fx.tracker.Account("42")
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if acc.Plan != store.PlanVIP {
		t.Fatalf("activation must grant vip, got %q", acc.Plan)
	}

	fx.handler.handleMessage(context.Background(), command(900, -500, "/removekey "+token))
	if !fx.client.anyTextContains("Key removed successfully!") {
		t.Fatalf("removal confirmation missing: %v", fx.client.texts)
	}
}

func TestActivateInvalidKey(t *testing.T) {
	fx := newFixture(t, nil)
	register(t, fx, 42)
	fx.handler.handleMessage(context.Background(), command(42, -500, "/activatekey AAAAA-BBBBB-CCCCC-DDDDD"))
	if got := fx.client.lastText(t); got != invalidKeyText {
		t.Fatalf("expected invalid key message, got %q", got)
	}
}

func TestCookieScanFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Account overview"))
	}))
	defer srv.Close()

	fx := newFixture(t, map[string]config.TargetConfig{
		"netflix": {Name: "Netflix", ProbeURL: srv.URL, Contains: "Account", Domains: []string{".netflix.com"}},
	})
	register(t, fx, 42)

	fx.handler.handleCallback(context.Background(), callback(42, -500, "service_netflix"))
	if !fx.client.anyTextContains("Selected: Netflix") {
		t.Fatalf("service selection missing: %v", fx.client.texts)
	}

	content := ".netflix.com\tTRUE\t/\tTRUE\t1799999999\tNetflixId\tabc\n"
	fx.handler.fetchFile = func(ctx context.Context, fileID string) ([]byte, error) {
		return []byte(content), nil
	}
	fx.handler.handleDocument(context.Background(), document(42, -500, "cookies.txt"))

	if !fx.client.anyTextContains("Valid cookie.") {
		t.Fatalf("scan verdict missing: %v", fx.client.texts)
	}
	if len(fx.client.docNames) != 1 || !strings.HasPrefix(fx.client.docNames[0], "live_cookies_") {
		t.Fatalf("live archive not sent: %v", fx.client.docNames)
	}

	acc, _ := fx.tracker.Account("42")
	if acc.FileCount != 1 {
		t.Fatalf("scan must consume quota, got %d", acc.FileCount)
	}
}

func TestCookieScanNoMatchingCookies(t *testing.T) {
	fx := newFixture(t, map[string]config.TargetConfig{
		"netflix": {Name: "Netflix", ProbeURL: "http://127.0.0.1:0", Contains: "Account", Domains: []string{".netflix.com"}},
	})
	register(t, fx, 42)

	fx.handler.handleCallback(context.Background(), callback(42, -500, "service_netflix"))
	fx.handler.fetchFile = func(ctx context.Context, fileID string) ([]byte, error) {
		return []byte(".spotify.com\tTRUE\t/\tTRUE\t1799999999\tsp_dc\ttok\n"), nil
	}
	fx.handler.handleDocument(context.Background(), document(42, -500, "cookies.txt"))

	if !fx.client.anyTextContains("No cookies found for this service.") {
		t.Fatalf("no-cookies verdict missing: %v", fx.client.texts)
	}

	acc, _ := fx.tracker.Account("42")
	if acc.FileCount != 0 {
		t.Fatalf("unmatched file must not consume quota, got %d", acc.FileCount)
	}
}

func TestCookieScanRequiresServiceSelection(t *testing.T) {
	fx := newFixture(t, nil)
	register(t, fx, 42)
	fx.handler.handleDocument(context.Background(), document(42, -500, "cookies.txt"))
	if got := fx.client.lastText(t); got != "Please choose a service first from the menu." {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestCookieScanQuotaDenied(t *testing.T) {
	fx := newFixture(t, map[string]config.TargetConfig{
		"netflix": {Name: "Netflix", ProbeURL: "http://127.0.0.1:0", Contains: "Account", Domains: []string{".netflix.com"}},
	})
	register(t, fx, 42)
	if err := fx.tracker.RecordScan("42", 50); err != nil {
		t.Fatalf("RecordScan: %v", err)
	}

	fx.handler.handleCallback(context.Background(), callback(42, -500, "service_netflix"))
	fx.handler.handleDocument(context.Background(), document(42, -500, "cookies.txt"))

	if !strings.Contains(fx.client.lastText(t), "used all 50 scan attempts") {
		t.Fatalf("expected quota denial, got %q", fx.client.lastText(t))
	}
}

func TestPrivateChatBlockedForNormalUsers(t *testing.T) {
	fx := newFixture(t, nil)
	register(t, fx, 42)
	fx.handler.handleDocument(context.Background(), document(42, 42, "cookies.txt"))
	if got := fx.client.lastText(t); got != privateBlockText {
		t.Fatalf("expected private block, got %q", got)
	}
}

func TestMailCheckerFlow(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("email") == "live@example.com" {
			w.Write([]byte("HIT"))
			return
		}
		w.Write([]byte("BAD"))
	}))
	defer endpoint.Close()

	fx := newFixture(t, nil)
	fx.handler.mail = mailcheck.NewChecker(endpoint.URL, 1, zap.NewNop(), nil)
	register(t, fx, 42)

	fx.handler.handleCallback(context.Background(), callback(42, -500, "mail_checker"))
	fx.handler.fetchFile = func(ctx context.Context, fileID string) ([]byte, error) {
		return []byte("live@example.com:pw1\ndead@example.com:pw2\n"), nil
	}
	fx.handler.handleDocument(context.Background(), document(42, -500, "accounts.txt"))

	if !fx.client.anyTextContains("Task Completed!") {
		t.Fatalf("final progress missing: %v", fx.client.texts)
	}
	if len(fx.client.docNames) != 1 || fx.client.docNames[0] != "hotmail_valid.txt" {
		t.Fatalf("valid accounts file not sent: %v", fx.client.docNames)
	}
	acc, _ := fx.tracker.Account("42")
	if acc.FileCount != 1 {
		t.Fatalf("mail check must consume one scan, got %d", acc.FileCount)
	}
}
