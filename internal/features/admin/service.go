// Package admin — service.go: проверка пароля (argon2id), лимит попыток
// входа, выдача сессий и проверка прав.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"jeanbet.ru/betting-webapp/internal/common"
	"jeanbet.ru/betting-webapp/internal/config"
	"jeanbet.ru/betting-webapp/internal/features/users"
)

const (
	sessionTTL      = 24 * time.Hour
	maxLoginTries   = 3 // неудачных попыток в час до блокировки
	sessionTokenLen = 32
)

// Service управляет доступом к админке.
type Service struct {
	repo         *Repository
	usersService *users.Service
	passwordHash string
	adminIDs     map[int64]struct{}
}

// NewService создаёт сервис админки.
func NewService(repo *Repository, usersService *users.Service, cfg *config.Config) *Service {
	ids := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		ids[id] = struct{}{}
	}
	return &Service{
		repo:         repo,
		usersService: usersService,
		passwordHash: cfg.AdminPasswordHash,
		adminIDs:     ids,
	}
}

// Login проверяет пароль и выдаёт сессию.
// После maxLoginTries неудач за час — блокировка на час.
func (s *Service) Login(ctx context.Context, userID int64, password string) (*Session, error) {
	if !s.isKnownAdmin(ctx, userID) {
		return nil, common.ErrNotAdmin
	}

	failures, err := s.repo.CountRecentFailures(ctx, userID)
	if err != nil {
		return nil, err
	}
	if failures >= maxLoginTries {
		log.WithField("user_id", userID).Warn("Вход в админку заблокирован по лимиту попыток")
		return nil, common.ErrTooManyAttempts
	}

	ok, err := verifyPassword(password, s.passwordHash)
	if err != nil {
		return nil, fmt.Errorf("некорректный хэш пароля в конфигурации: %w", err)
	}
	if recErr := s.repo.RecordLoginAttempt(ctx, userID, ok); recErr != nil {
		log.WithError(recErr).Error("Не удалось записать попытку входа")
	}
	if !ok {
		return nil, common.ErrWrongPassword
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	session, err := s.repo.CreateSession(ctx, userID, token, sessionTTL)
	if err != nil {
		return nil, err
	}

	log.WithField("user_id", userID).Info("Администратор вошёл в систему")
	return session, nil
}

// Logout закрывает все сессии пользователя.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.DeactivateSessions(ctx, userID)
}

// Authorize проверяет, что у пользователя есть права админа И живая сессия.
func (s *Service) Authorize(ctx context.Context, userID int64) error {
	if !s.isKnownAdmin(ctx, userID) {
		return common.ErrNotAdmin
	}
	active, err := s.repo.HasActiveSession(ctx, userID)
	if err != nil {
		return err
	}
	if !active {
		return common.ErrNotAdmin
	}
	return nil
}

// IsAdmin сообщает, входит ли пользователь в круг администраторов
// (без требования активной сессии — для показа кнопки входа в админку).
func (s *Service) IsAdmin(ctx context.Context, userID int64) bool {
	return s.isKnownAdmin(ctx, userID)
}

// Stats возвращает сводку для дашборда.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.GetStats(ctx)
}

// PurgeSessions удаляет протухшие сессии (вызывается планировщиком).
func (s *Service) PurgeSessions(ctx context.Context) {
	n, err := s.repo.DeleteExpiredSessions(ctx)
	if err != nil {
		log.WithError(err).Error("Не удалось почистить админские сессии")
		return
	}
	if n > 0 {
		log.WithField("count", n).Debug("Протухшие админские сессии удалены")
	}
}

// isKnownAdmin: админ — это ID из конфигурации ИЛИ флаг is_admin в БД.
func (s *Service) isKnownAdmin(ctx context.Context, userID int64) bool {
	if _, ok := s.adminIDs[userID]; ok {
		return true
	}
	flag, err := s.usersService.IsAdminFlag(ctx, userID)
	if err != nil {
		return false
	}
	return flag
}

func generateToken() (string, error) {
	buf := make([]byte, sessionTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// verifyPassword сверяет пароль с хэшем в формате
// $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>.
// Сравнение — за постоянное время.
func verifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("неподдерживаемый формат хэша")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, err
	}
	if version != argon2.Version {
		return false, fmt.Errorf("неподдерживаемая версия argon2: %d", version)
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
