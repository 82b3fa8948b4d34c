package mlmapi

import (
	"errors"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"fortuna/internal/telegram"
)

const DayFormat = "2006-01-02"

// AppLocation resolves the business timezone every calendar day is anchored
// to. Midnight in this zone decides when a cron day or sweep day rolls over.
func AppLocation() *time.Location {
	zone := os.Getenv("APP_TIMEZONE")
	if zone == "" {
		zone = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayFormat)
}

// DaysBetween counts full calendar days from a to b in loc. Rounding
// absorbs the hour a DST transition adds or removes from the span.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	return int(math.Round(Midnight(b, loc).Sub(Midnight(a, loc)).Hours() / 24))
}

func IsWeekend(t time.Time, loc *time.Location) bool {
	wd := t.In(loc).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func EscapeMarkdownV2(text string) string {
	specialChars := []string{"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	for _, char := range specialChars {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

func SendTelegramMessage(msg string, chat string) error {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		err := errors.New("TELEGRAM_TOKEN is not set")
		return err
	}
	chatId := os.Getenv("DEFAULT_CHAT_ID")
	if chatId == "" {
		err := errors.New("DEFAULT CHAT_ID is not set")
		return err
	}
	switch chat {
	case "signup":
		chatId = os.Getenv("SIGNUP_CHAT_ID")
		if chatId == "" {
			err := errors.New("SIGNUP CHAT_ID is not set")
			return err
		}
	case "finance":
		chatId = os.Getenv("FINANCE_CHAT_ID")
		if chatId == "" {
			err := errors.New("FINANCE CHAT_ID is not set")
			return err
		}
	default:
		chatId = os.Getenv("DEFAULT_CHAT_ID")
		if chatId == "" {
			err := errors.New("DEFAULT CHAT_ID is not set")
			return err
		}
	}
	chatIdInt, err := strconv.Atoi(chatId)
	if err != nil {
		return err
	}
	bot, err := telegram.NewBot(token)
	if err != nil {
		return err
	}
	return bot.SendMarkdown(int64(chatIdInt), msg)
}
