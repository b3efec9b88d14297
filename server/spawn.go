package server

import "math/rand"

// SpawnPolicy 出生点策略：按房间名查矩形，范围内随机抖动取点
// 未识别的房间名回落到兜底矩形（房间本身仍按请求名创建）
type SpawnPolicy struct {
	rects    map[string]Spawn
	fallback Spawn
}

func NewSpawnPolicy(cfg *Config) *SpawnPolicy {
	rects := make(map[string]Spawn, len(cfg.Spawns))
	for _, s := range cfg.Spawns {
		rects[s.Room] = s
	}
	return &SpawnPolicy{rects: rects, fallback: cfg.DefaultSpawn}
}

// Pick 为 roomName 计算一个出生坐标
func (p *SpawnPolicy) Pick(roomName string) (x, y float64) {
	rect, ok := p.rects[roomName]
	if !ok {
		rect = p.fallback
	}
	x = rect.XMin + rand.Float64()*(rect.XMax-rect.XMin)
	y = rect.YMin + rand.Float64()*(rect.YMax-rect.YMin)
	return x, y
}

// Rect 暴露房间矩形（未识别时返回兜底矩形），供诊断与测试使用
func (p *SpawnPolicy) Rect(roomName string) Spawn {
	if rect, ok := p.rects[roomName]; ok {
		return rect
	}
	return p.fallback
}
