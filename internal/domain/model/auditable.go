package model

import "time"

// 作成・更新時刻を持つエンティティ。
// 時刻はrepositoryが注入されたClockから渡す（gormの自動採番はオフ）
type Auditable interface {
	TouchCreated(now time.Time)
	TouchUpdated(now time.Time)
}

// Timestamps は created_at / updated_at の埋め込み用
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (t *Timestamps) TouchCreated(now time.Time) {
	t.CreatedAt = now
	t.UpdatedAt = now
}

func (t *Timestamps) TouchUpdated(now time.Time) {
	t.UpdatedAt = now
}

// まとめて作成時刻を入れる
func TouchCreated(now time.Time, entities ...Auditable) {
	for _, e := range entities {
		e.TouchCreated(now)
	}
}

// まとめて更新時刻を入れる
func TouchUpdated(now time.Time, entities ...Auditable) {
	for _, e := range entities {
		e.TouchUpdated(now)
	}
}
