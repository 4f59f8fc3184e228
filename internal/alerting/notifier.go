package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stock-risk-alerts/internal/forecast"
	"stock-risk-alerts/internal/logging"
)

// Notification 封装一次门店评估的告警上下文。
type Notification struct {
	LocationID  int
	EvaluatedAt time.Time
	Records     []forecast.AlertRecord
	MinStatus   forecast.Status
	Channels    []string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// Actionable returns the records at or above the notification threshold,
// most severe first, keeping catalog order within a status.
func (n Notification) Actionable() []forecast.AlertRecord {
	out := make([]forecast.AlertRecord, 0, len(n.Records))
	for sev := forecast.StatusCritical.Severity(); sev >= n.MinStatus.Severity(); sev-- {
		for _, rec := range n.Records {
			if rec.Status.Severity() == sev {
				out = append(out, rec)
			}
		}
	}
	return out
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logging.Component(logger, "alert_telegram"),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Int("location_id", note.LocationID).
		Time("evaluated_at", note.EvaluatedAt).
		Int("records", len(note.Actionable())).
		Str("channels", strings.Join(note.Channels, ",")).
		Msg("告警已发送 (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Stock Alert] Location %d\n", note.LocationID))
	builder.WriteString(fmt.Sprintf("Evaluated: %s UTC\n", note.EvaluatedAt.UTC().Format(time.RFC3339)))

	for _, rec := range note.Actionable() {
		builder.WriteString(fmt.Sprintf("\n%s %s\n", statusIcon(rec.Status), rec.IngredientName))
		builder.WriteString(fmt.Sprintf("  Stock: %d (burn %.1f/day, %s)\n", rec.CurrentStock, rec.DailyBurnRate, formatDays(rec.DaysUntilStockout)))
		builder.WriteString(fmt.Sprintf("  Action: %s\n", rec.Recommendation))
		builder.WriteString(fmt.Sprintf("  Markup: +%s%% (%s)\n", rec.SuggestedMarkup.Shift(2).StringFixed(0), rec.PricingRationale))
	}
	return builder.String()
}

func statusIcon(s forecast.Status) string {
	switch s {
	case forecast.StatusCritical:
		return "[CRITICAL]"
	case forecast.StatusWarning:
		return "[WARNING]"
	default:
		return "[OK]"
	}
}

func formatDays(days int) string {
	if days >= forecast.NoStockout {
		return "no stockout projected"
	}
	return fmt.Sprintf("%d days left", days)
}

var _ Notifier = (*TelegramNotifier)(nil)
