// Package model はドメインモデルを定義する。
package model

import "time"

// RecordType は健康記録の種別を表す。
type RecordType string

const (
	// RecordTypeCheckup は健康診断の記録。
	RecordTypeCheckup RecordType = "checkup"
	// RecordTypePrescription は処方の記録。
	RecordTypePrescription RecordType = "prescription"
	// RecordTypeLabResult は検査結果の記録。
	RecordTypeLabResult RecordType = "lab_result"
	// RecordTypeVaccination は予防接種の記録。
	RecordTypeVaccination RecordType = "vaccination"
	// RecordTypeOther はその他の記録。
	RecordTypeOther RecordType = "other"
)

// HealthRecord は健康記録を表す。
// 作成後はupdated_at以外イミュータブルとして扱う。
type HealthRecord struct {
	ID          string
	OwnerID     string
	Title       string
	RecordType  RecordType
	Doctor      string
	Date        time.Time
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VitalSign はバイタルサインの計測値を表す。追記専用。
// 未計測の項目はnilで表現する（nil = シグナルなし）。
type VitalSign struct {
	ID          string
	OwnerID     string
	HeartRate   *int
	Systolic    *int
	Diastolic   *int
	Temperature *float64
	RecordedAt  time.Time
}

// Medication は服薬中・服薬予定の薬を表す。
type Medication struct {
	ID        string
	OwnerID   string
	Name      string
	Dosage    string
	Frequency string
	StartDate time.Time
	EndDate   *time.Time
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActiveAt は指定時刻において服薬がアクティブかどうかを返す。
// アクティブ ⇔ end_dateが未設定 かつ start_dateが当日以前。
func (m *Medication) IsActiveAt(now time.Time) bool {
	if m.EndDate != nil {
		return false
	}
	return !m.StartDate.After(now)
}

// Appointment は診察予約を表す。
type Appointment struct {
	ID        string
	OwnerID   string
	Doctor    string
	Date      time.Time
	Purpose   string
	Location  string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
