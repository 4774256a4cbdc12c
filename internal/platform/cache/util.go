package cache

import (
	"time"
)

// ingestHourUTC は取り込みバッチの実行時刻（UTC）です。
const ingestHourUTC = 3

// TimeUntilNextIngest は次の取り込みバッチ実行時刻までの期間を返します。
// 一覧キャッシュのTTLとして使用することで、バッチ完了後に自然に失効します。
func TimeUntilNextIngest() time.Duration {
	now := time.Now().UTC()

	next := time.Date(now.Year(), now.Month(), now.Day(), ingestHourUTC, 0, 0, 0, time.UTC)

	// 今日の実行時刻が既に過ぎている場合は翌日を使用
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}

	return next.Sub(now)
}
