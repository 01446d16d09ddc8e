// Package model はドメインモデルを定義する。
package model

import "time"

// NotificationRequest はリマインダー評価器が生成する送信前の通知要求。
// 永続化されず、生成後すぐにNotifierへ渡されて消費される。
type NotificationRequest struct {
	Recipient string // 宛先メールアドレス
	Subject   string
	Body      string
	DueAt     time.Time
}
