package model

import "time"

// SerialComponent は機器内の交換可能コンポーネント1つのシリアル情報を表す。
// 搭載されていないスロットは Present=false で表現する。
type SerialComponent struct {
	Present      bool   `json:"present"`
	ModelType    string `json:"model_type,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// Product は屋外警報装置1台の機器レコードを表す。
// コア（認可・監査）から見ればIDを持つ可変フィールド集合にすぎず、
// 各属性の業務的意味はコアの関知するところではない。
type Product struct {
	ID string

	// 識別
	Tag        string
	UnitNumber string

	// 日付（運用側の入力値をそのまま保持するため文字列）
	InstalledAt   string
	UpdatedDate   string
	WarrantyUntil string

	// 機種・構成
	UnitModel        string
	ExistingPower    string
	ProposalStatus   string
	DeploymentStatus string

	// 設置場所
	Region    string
	Site      string
	Latitude  string
	Longitude string
	MountType string
	Azimuth   string

	// 中継局
	PrimaryRepeater   string
	SecondaryRepeater string

	// ファームウェア・設定
	RadioFirmware string
	MelodyType    string
	AlarmPriority string

	// チャンネルID
	PrimaryChannelID   string
	SecondaryChannelID string

	// 無線機
	PrimaryRadioSerial   string
	PrimaryRadioModel    string
	SecondaryRadioSerial string
	SecondaryRadioModel  string

	// コンバーター
	PrimaryConverterSerial   string
	SecondaryConverterSerial string

	// マザーボード・電源・通信ボード
	MotherboardFirmware string
	Motherboard         SerialComponent
	PowerSupply         SerialComponent
	PrimaryCommBoard    SerialComponent
	SecondaryCommBoard  SerialComponent

	// アンプスロット（最大10基）
	Amplifiers []SerialComponent

	// 備考
	Notes string

	// メタデータ
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
