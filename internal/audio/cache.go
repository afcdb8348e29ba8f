package audio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/voxkit/voxstudio/internal/logger"
)

// CacheEntry 缓存索引中的一条记录。
type CacheEntry struct {
	AssetID  string  `json:"asset_id"`
	Voice    string  `json:"voice"`
	Duration float64 `json:"duration"`
	Size     int64   `json:"size"`
	CachedAt string  `json:"cached_at"`
	LastUsed string  `json:"last_used"`
}

// AssetCache 管理生成的音频文件缓存和索引。
// 合成结果以 MP3 形式落盘，AudioAsset.URL 即指向这里的缓存文件。
type AssetCache struct {
	mu       sync.RWMutex
	cacheDir string
	maxSize  int64 // 最大缓存大小（字节），<= 0 表示禁用缓存
	index    map[string]*CacheEntry
}

// NewAssetCache 创建音频缓存管理器。
// cacheDir 为缓存目录路径，maxSizeMB 为最大缓存大小（MB），负数表示禁用缓存。
func NewAssetCache(cacheDir string, maxSizeMB int64) (*AssetCache, error) {
	if maxSizeMB <= 0 {
		// 缓存被禁用
		return &AssetCache{
			cacheDir: cacheDir,
			maxSize:  0,
			index:    make(map[string]*CacheEntry),
		}, nil
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}

	ac := &AssetCache{
		cacheDir: cacheDir,
		maxSize:  maxSizeMB * 1024 * 1024,
		index:    make(map[string]*CacheEntry),
	}

	if err := ac.loadIndex(); err != nil {
		logger.Warnf("[cache] 加载缓存索引失败（将使用空索引）: %v", err)
	}

	// 校验索引：移除本地文件不存在的条目
	ac.validateIndex()

	return ac, nil
}

// Enabled 返回缓存是否启用。
func (ac *AssetCache) Enabled() bool {
	return ac.maxSize > 0
}

// CacheDir 返回缓存目录路径。
func (ac *AssetCache) CacheDir() string {
	return ac.cacheDir
}

// FilePath 返回缓存文件的完整路径。
func (ac *AssetCache) FilePath(assetID string) string {
	return filepath.Join(ac.cacheDir, assetID+".mp3")
}

// Lookup 查找缓存条目，返回本地文件路径和是否命中。
// 命中会更新条目的最后使用时间，因此这里拿写锁。
func (ac *AssetCache) Lookup(assetID string) (string, bool) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	entry, ok := ac.index[assetID]
	if !ok {
		return "", false
	}

	filePath := filepath.Join(ac.cacheDir, assetID+".mp3")
	if _, err := os.Stat(filePath); err != nil {
		return "", false
	}

	entry.LastUsed = time.Now().Format(time.RFC3339)

	return filePath, true
}

// Put 写入音频数据并登记索引，返回缓存文件路径。
// 缓存禁用时仍然落盘（播放需要文件路径），但不维护索引与淘汰。
func (ac *AssetCache) Put(assetID string, data []byte, voice string, duration float64) (string, error) {
	if err := os.MkdirAll(ac.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("创建缓存目录失败: %w", err)
	}

	filePath := filepath.Join(ac.cacheDir, assetID+".mp3")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("写入缓存文件失败: %w", err)
	}

	if !ac.Enabled() {
		return filePath, nil
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	ac.index[assetID] = &CacheEntry{
		AssetID:  assetID,
		Voice:    voice,
		Duration: duration,
		Size:     int64(len(data)),
		CachedAt: now,
		LastUsed: now,
	}

	if err := ac.saveIndexLocked(); err != nil {
		return "", fmt.Errorf("保存缓存索引失败: %w", err)
	}

	// 检查并淘汰
	ac.evictLocked()

	logger.Infof("[cache] 已缓存音频 %s (%s, %d bytes)", assetID, voice, len(data))
	return filePath, nil
}

// Delete 删除指定资源的缓存条目和文件。
func (ac *AssetCache) Delete(assetID string) bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if _, ok := ac.index[assetID]; !ok {
		return false
	}

	filePath := filepath.Join(ac.cacheDir, assetID+".mp3")
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		logger.Warnf("[cache] 删除缓存文件失败: %s: %v", filePath, err)
		return false
	}

	delete(ac.index, assetID)
	ac.saveIndexLocked()
	return true
}

// List 返回所有缓存条目，按 last_used 倒序排列。
func (ac *AssetCache) List() []CacheEntry {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	results := make([]CacheEntry, 0, len(ac.index))
	for _, entry := range ac.index {
		results = append(results, *entry)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].LastUsed > results[j].LastUsed
	})

	return results
}

// loadIndex 从磁盘加载缓存索引。
func (ac *AssetCache) loadIndex() error {
	indexPath := filepath.Join(ac.cacheDir, "cache_index.json")
	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &ac.index)
}

// saveIndexLocked 持久化缓存索引（调用方需持有锁）。
func (ac *AssetCache) saveIndexLocked() error {
	indexPath := filepath.Join(ac.cacheDir, "cache_index.json")
	data, err := json.MarshalIndent(ac.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(indexPath, data, 0644)
}

// validateIndex 校验索引，移除本地文件不存在的条目。
func (ac *AssetCache) validateIndex() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	removed := 0
	for key := range ac.index {
		filePath := filepath.Join(ac.cacheDir, key+".mp3")
		if _, err := os.Stat(filePath); err != nil {
			delete(ac.index, key)
			removed++
		}
	}

	if removed > 0 {
		logger.Infof("[cache] 索引校验：移除 %d 个无效条目", removed)
		ac.saveIndexLocked()
	}

	logger.Infof("[cache] 缓存已加载: %d 条音频, 目录 %s", len(ac.index), ac.cacheDir)
}

// evictLocked 检查缓存总大小并淘汰最久未使用的（调用方需持有锁）。
func (ac *AssetCache) evictLocked() {
	if ac.maxSize <= 0 {
		return
	}

	var totalSize int64
	for _, entry := range ac.index {
		totalSize += entry.Size
	}

	if totalSize <= ac.maxSize {
		return
	}

	// 按 last_used 升序排列，先淘汰最久未使用的
	type keyEntry struct {
		key   string
		entry *CacheEntry
	}
	var entries []keyEntry
	for k, v := range ac.index {
		entries = append(entries, keyEntry{key: k, entry: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].entry.LastUsed < entries[j].entry.LastUsed
	})

	for _, ke := range entries {
		if totalSize <= ac.maxSize {
			break
		}

		filePath := filepath.Join(ac.cacheDir, ke.key+".mp3")
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Warnf("[cache] 删除缓存文件失败: %s: %v", filePath, err)
			continue
		}

		totalSize -= ke.entry.Size
		delete(ac.index, ke.key)
		logger.Infof("[cache] LRU 淘汰: %s (%s)", ke.key, ke.entry.Voice)
	}

	ac.saveIndexLocked()
}
