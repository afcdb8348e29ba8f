package segment

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/voxkit/voxstudio/internal/logger"
	_ "modernc.org/sqlite"
)

// Repository 使用 SQLite 持久化一个工程的段集合。
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository 打开或创建工程数据库。
// dataDir: 数据目录路径，SQLite 文件存放在此目录下。
func NewRepository(dataDir string) (*Repository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	dbPath := filepath.Join(dataDir, "project.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// 设置 WAL 模式和外键约束
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("启用外键约束失败: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Infof("[segment] 工程存储已初始化 (db=%s)", dbPath)
	return &Repository{db: db, path: dbPath}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS segments (
			id TEXT PRIMARY KEY,
			ord INTEGER NOT NULL,
			content TEXT NOT NULL,
			generated_content TEXT DEFAULT '',
			voice_id TEXT DEFAULT '',
			voice_name TEXT DEFAULT '',
			voice_language TEXT DEFAULT '',
			asset_id TEXT DEFAULT '',
			asset_url TEXT DEFAULT '',
			asset_format TEXT DEFAULT '',
			asset_duration REAL DEFAULT 0,
			asset_waveform BLOB,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_segments_ord ON segments(ord);
	`)
	if err != nil {
		return fmt.Errorf("创建数据表失败: %w", err)
	}
	return nil
}

// Path 返回数据库文件路径。
func (r *Repository) Path() string {
	return r.path
}

// Save 将整个段集合写入数据库（整体替换，单事务）。
func (r *Repository) Save(st *Store) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM segments"); err != nil {
		return fmt.Errorf("清空段表失败: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO segments
			(id, ord, content, generated_content, voice_id, voice_name, voice_language,
			 asset_id, asset_url, asset_format, asset_duration, asset_waveform)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("准备插入语句失败: %w", err)
	}
	defer stmt.Close()

	for _, seg := range st.List() {
		var assetID, assetURL, assetFormat string
		var assetDuration float64
		var waveformBlob []byte
		if seg.Asset != nil {
			assetID = seg.Asset.ID
			assetURL = seg.Asset.URL
			assetFormat = seg.Asset.Format
			assetDuration = seg.Asset.Duration
			waveformBlob = float32ToBytes(seg.Asset.Waveform)
		}

		if _, err := stmt.Exec(
			seg.ID, seg.Order, seg.Content, seg.generatedContent,
			seg.Voice.ID, seg.Voice.Name, seg.Voice.Language,
			assetID, assetURL, assetFormat, assetDuration, waveformBlob,
		); err != nil {
			return fmt.Errorf("写入段 %s 失败: %w", seg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	logger.Debugf("[segment] 已保存 %d 段到 %s", st.Len(), r.path)
	return nil
}

// Load 从数据库读取段集合。数据库为空时返回空集合。
func (r *Repository) Load() (*Store, error) {
	rows, err := r.db.Query(`
		SELECT id, ord, content, generated_content, voice_id, voice_name, voice_language,
		       asset_id, asset_url, asset_format, asset_duration, asset_waveform
		FROM segments ORDER BY ord
	`)
	if err != nil {
		return nil, fmt.Errorf("查询段失败: %w", err)
	}
	defer rows.Close()

	st := NewStore()
	for rows.Next() {
		var seg TextSegment
		var assetID, assetURL, assetFormat string
		var assetDuration float64
		var waveformBlob []byte

		if err := rows.Scan(
			&seg.ID, &seg.Order, &seg.Content, &seg.generatedContent,
			&seg.Voice.ID, &seg.Voice.Name, &seg.Voice.Language,
			&assetID, &assetURL, &assetFormat, &assetDuration, &waveformBlob,
		); err != nil {
			return nil, fmt.Errorf("读取段数据失败: %w", err)
		}

		if assetID != "" {
			seg.Asset = &AudioAsset{
				ID:       assetID,
				URL:      assetURL,
				Format:   assetFormat,
				Duration: assetDuration,
				Waveform: bytesToFloat32(waveformBlob),
			}
		}

		s := seg
		st.Append(&s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历段数据失败: %w", err)
	}

	logger.Infof("[segment] 已加载 %d 段", st.Len())
	return st, nil
}

// Close 关闭数据库连接。
func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// float32ToBytes 将 []float32 序列化为小端字节序 BLOB。
func float32ToBytes(data []float32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// bytesToFloat32 将小端字节序 BLOB 反序列化为 []float32。
func bytesToFloat32(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	result := make([]float32, len(data)/4)
	for i := range result {
		result[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return result
}
