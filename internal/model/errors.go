// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// RecoverableError はスイープ中の1件の処理失敗を表す。
// 該当アイテムをスキップしてバッチ処理を継続してよいことを示す。
type RecoverableError struct {
	Op  string // 失敗した操作
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap はラップされたエラーを返す。
func (e *RecoverableError) Unwrap() error { return e.Err }

// FatalStoreError はデータストア全体の障害を表す。
// 現在のスイープを中断し、次のスケジュール実行に委ねることを示す。
type FatalStoreError struct {
	Op  string
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *FatalStoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap はラップされたエラーを返す。
func (e *FatalStoreError) Unwrap() error { return e.Err }

// NewRecoverableError はスキップ可能な処理失敗エラーを生成する。
func NewRecoverableError(op string, err error) *RecoverableError {
	return &RecoverableError{Op: op, Err: err}
}

// NewFatalStoreError はスイープ中断を要するストア障害エラーを生成する。
func NewFatalStoreError(op string, err error) *FatalStoreError {
	return &FatalStoreError{Op: op, Err: err}
}

// IsRecoverable はエラーがスキップ可能な処理失敗かどうかを判定する。
func IsRecoverable(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}

// IsFatalStore はエラーがスイープ中断を要するストア障害かどうかを判定する。
func IsFatalStore(err error) bool {
	var fe *FatalStoreError
	return errors.As(err, &fe)
}
