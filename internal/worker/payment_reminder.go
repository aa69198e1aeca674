package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-backend/internal/pkg/logger"
)

// PaymentReminderSender は未払い予約へのリマインダー送信を行うインターフェース
type PaymentReminderSender interface {
	SendPaymentReminders(ctx context.Context, olderThan time.Duration) (int, error)
}

// PaymentReminder は未払い予約に支払いリマインダーを送信するワーカー
// 送信済みの予約には再送しない（送信記録はサービス側で管理）
type PaymentReminder struct {
	reservationService PaymentReminderSender
	interval           time.Duration
	olderThan          time.Duration
	stopCh             chan struct{}
	doneCh             chan struct{}
}

// NewPaymentReminder は新しいリマインダーワーカーを作成
func NewPaymentReminder(
	rs PaymentReminderSender,
	interval time.Duration,
	olderThan time.Duration,
) *PaymentReminder {
	return &PaymentReminder{
		reservationService: rs,
		interval:           interval,
		olderThan:          olderThan,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

// Start はワーカーを開始
func (w *PaymentReminder) Start(ctx context.Context) {
	logger.Info("支払いリマインダーワーカー開始",
		zap.Duration("interval", w.interval),
		zap.Duration("older_than", w.olderThan),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("支払いリマインダーワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("支払いリマインダーワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

// Stop はワーカーを停止
func (w *PaymentReminder) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// run は1回分のリマインダー送信を実行
func (w *PaymentReminder) run(ctx context.Context) {
	log := logger.Get()
	log.Debug("未払い予約のリマインダー送信開始")

	count, err := w.reservationService.SendPaymentReminders(ctx, w.olderThan)
	if err != nil {
		log.Error("リマインダー送信失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("支払いリマインダーを送信", zap.Int("count", count))
	} else {
		log.Debug("リマインダー対象の予約なし")
	}
}
