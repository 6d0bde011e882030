package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/chatwarden/chatwarden-backend/pkg/logger"
)

// MaxAuditReadLimit ReadRecent 최대 조회 건수
const MaxAuditReadLimit = 20

// Encrypter symmetric text cipher used for audit details
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

// AuditWriter appends audit entries
type AuditWriter interface {
	Append(ctx context.Context, actorID int64, action string, targetID int64, detail string) error
}

// AuditLog 권한 행위 감사 로그 (detail 은 암호화 저장)
type AuditLog struct {
	repo      *repository.AuditRepository
	cipher    Encrypter
	clock     clock.Clock
	retention time.Duration
}

// NewAuditLog creates an AuditLog. retention is the age purged by RunRetention
func NewAuditLog(repo *repository.AuditRepository, c Encrypter, clk clock.Clock, retention time.Duration) *AuditLog {
	if clk == nil {
		clk = clock.Real()
	}
	return &AuditLog{repo: repo, cipher: c, clock: clk, retention: retention}
}

// Append 감사 기록 추가. 빈 detail 은 NULL 로 저장
func (a *AuditLog) Append(ctx context.Context, actorID int64, action string, targetID int64, detail string) error {
	log := logger.ForActor(ctx, actorID)

	if action == "" || utf8.RuneCountInString(action) > domain.MaxActionLength {
		log.Warn().
			Int64("target_id", targetID).
			Int("action_len", utf8.RuneCountInString(action)).
			Msg("audit action rejected")
		return common.Invalid("audit action must be 1-%d characters", domain.MaxActionLength)
	}

	entry := &domain.AuditEntry{
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		Timestamp: a.clock.Now(),
	}
	if detail != "" {
		token, err := a.cipher.Encrypt(detail)
		if err != nil {
			auditFailures.WithLabelValues("encrypt").Inc()
			log.Error().Err(err).Str("action", action).Msg("audit detail encryption failed")
			return fmt.Errorf("audit %s: %w", action, common.ErrEncryption)
		}
		entry.Detail = &token
	}

	if err := a.repo.Create(ctx, entry); err != nil {
		auditFailures.WithLabelValues("store").Inc()
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

// ReadRecent returns up to limit entries where subject is target or actor, newest first.
// An undecryptable detail is replaced by a marker and does not fail the read.
func (a *AuditLog) ReadRecent(ctx context.Context, subjectID int64, limit int) ([]domain.AuditRecord, error) {
	if limit < 1 || limit > MaxAuditReadLimit {
		return nil, common.Invalid("limit must be 1-%d", MaxAuditReadLimit)
	}

	entries, err := a.repo.FindRecentBySubject(ctx, subjectID, limit)
	if err != nil {
		return nil, err
	}

	records := make([]domain.AuditRecord, 0, len(entries))
	for _, e := range entries {
		rec := domain.AuditRecord{
			ID:        e.ID,
			ActorID:   e.ActorID,
			Action:    e.Action,
			TargetID:  e.TargetID,
			Timestamp: e.Timestamp,
		}
		if e.Detail != nil {
			plain, err := a.cipher.Decrypt(*e.Detail)
			if err != nil {
				auditFailures.WithLabelValues("decrypt").Inc()
				logger.Ctx(ctx).Error().
					Err(errors.Join(common.ErrDecryption, err)).
					Int64("audit_id", e.ID).
					Msg("audit detail decryption failed")
				rec.Detail = domain.DecryptionFailedDetail
				rec.Undecryptable = true
			} else {
				rec.Detail = plain
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// PurgeOlderThan 지정 기간보다 오래된 기록 삭제
func (a *AuditLog) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, common.Invalid("purge age must be positive")
	}
	cutoff := a.clock.Now().Add(-age)
	n, err := a.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.GetLogger().Info().Int64("removed", n).Time("cutoff", cutoff).Msg("audit entries purged")
	}
	return n, nil
}

// RunRetention purges entries older than the configured retention every interval until ctx is done
func (a *AuditLog) RunRetention(ctx context.Context, interval time.Duration) {
	runEvery(ctx, interval, func(ctx context.Context) {
		if _, err := a.PurgeOlderThan(ctx, a.retention); err != nil {
			logger.GetLogger().Error().Err(err).Msg("audit retention purge failed")
		}
	})
}

// runEvery calls fn on a ticker; returns when ctx is done
func runEvery(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
