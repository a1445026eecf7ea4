package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// document_snapshots 表：一行一个 (docID, revision) 快照。
type DocumentSnapshot struct {
	ID         uint64    `gorm:"primaryKey"`
	DocumentID string    `gorm:"column:document_id;uniqueIndex:uk_doc_rev"`
	Revision   uint64    `gorm:"column:revision;uniqueIndex:uk_doc_rev"`
	Content    string    `gorm:"column:content;type:longtext"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (DocumentSnapshot) TableName() string { return "document_snapshots" }

type SnapshotStore struct{ db *gorm.DB }

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SaveDocumentSnapshot 落一份快照。同一 (doc, revision) 重复保存
// 视作已保存过，吞掉 1062 重复键错误。
func (s *SnapshotStore) SaveDocumentSnapshot(ctx context.Context, docID string, rev uint64, content string) error {
	snap := DocumentSnapshot{DocumentID: docID, Revision: rev, Content: content}
	err := s.db.WithContext(ctx).Create(&snap).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil
		}
		return err
	}
	return nil
}

// LatestSnapshot 取某文档最新一份快照；没有返回 (nil, nil)。
func (s *SnapshotStore) LatestSnapshot(ctx context.Context, docID string) (*DocumentSnapshot, error) {
	var snap DocumentSnapshot
	err := s.db.WithContext(ctx).
		Where("document_id = ?", docID).
		Order("revision DESC").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}
