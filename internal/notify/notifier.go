// Package notify доставляет уведомления пользователям через Telegram.
//
// Уведомления — побочный эффект денежных операций и структурно отделены
// от них: сервисы собирают хуки во время операции и запускают их строго
// ПОСЛЕ коммита транзакции. Ошибка доставки логируется и никогда
// не влияет на результат финансовой операции.
package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Notifier отправляет пользователю текстовое сообщение.
// Реализация обязана быть fire-and-forget: вызов не блокирует
// критический путь дольше постановки в очередь отправки.
type Notifier interface {
	Notify(userID int64, text string)
}

// TelegramNotifier шлёт сообщения через Bot API.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

// NewTelegramNotifier создаёт уведомитель поверх готового Bot API.
func NewTelegramNotifier(api *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

// Notify отправляет сообщение в отдельной горутине.
// Паника или ошибка отправки остаются внутри неё.
func (n *TelegramNotifier) Notify(userID int64, text string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Паника при отправке уведомления")
			}
		}()

		msg := tgbotapi.NewMessage(userID, text)
		if _, err := n.api.Send(msg); err != nil {
			log.WithFields(log.Fields{
				"user_id": userID,
			}).WithError(err).Warn("Не удалось отправить уведомление")
		}
	}()
}

// Nop — заглушка для тестов и запуска без бот-токена.
type Nop struct{}

// Notify ничего не делает.
func (Nop) Notify(int64, string) {}

// Hooks — список отложенных действий, выполняемых после коммита.
// Собирается во время денежной операции, запускается одним вызовом Run
// уже за границей транзакции.
type Hooks struct {
	fns []func()
}

// Add добавляет хук.
func (h *Hooks) Add(fn func()) {
	h.fns = append(h.fns, fn)
}

// Run выполняет все хуки по порядку. Паника одного хука не мешает остальным.
func (h *Hooks) Run() {
	for _, fn := range h.fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithField("panic", r).Error("Паника в post-commit хуке")
				}
			}()
			fn()
		}()
	}
}
