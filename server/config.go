package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 服务端启动配置；缺省值见 DefaultConfig
type Config struct {
	Addr            string  `yaml:"addr"`              // HTTP/WS 监听地址
	TickRate        int     `yaml:"tick_rate"`         // 全量广播频率（每秒次数）
	ChatHistoryCap  int     `yaml:"chat_history_cap"`  // 每房间聊天历史上限
	SendQueueSize   int     `yaml:"send_queue_size"`   // 每连接出站队列容量
	LogFile         string  `yaml:"log_file"`          // 日志文件路径
	DefaultRoom     string  `yaml:"default_room"`      // 未识别房间名时的出生点归属
	Spawns          []Spawn `yaml:"spawns"`            // 各房间出生矩形
	DefaultSpawn    Spawn   `yaml:"default_spawn"`     // 兜底出生矩形
}

// Spawn 房间出生矩形，加入时在范围内随机取点
type Spawn struct {
	Room string  `yaml:"room"`
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

// DefaultConfig 返回内置缺省配置，配置文件仅覆盖显式给出的字段
func DefaultConfig() *Config {
	return &Config{
		Addr:           ":8080",
		TickRate:       20,
		ChatHistoryCap: 50,
		SendQueueSize:  64,
		LogFile:        "app.log",
		DefaultRoom:    "main",
		Spawns: []Spawn{
			{Room: "cinema", XMin: 100, XMax: 150, YMin: 250, YMax: 300},
			{Room: "library", XMin: 100, XMax: 150, YMin: 200, YMax: 250},
			{Room: "townhall", XMin: 150, XMax: 200, YMin: 300, YMax: 350},
			{Room: "main", XMin: 143, XMax: 193, YMin: 100, YMax: 150},
		},
		DefaultSpawn: Spawn{XMin: 143, XMax: 193, YMin: 100, YMax: 150},
	}
}

// LoadConfig 读取 YAML 配置；path 为空时直接用缺省值
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("config %s: tick_rate must be positive", path)
	}
	if cfg.ChatHistoryCap <= 0 {
		return nil, fmt.Errorf("config %s: chat_history_cap must be positive", path)
	}
	if cfg.SendQueueSize <= 0 {
		return nil, fmt.Errorf("config %s: send_queue_size must be positive", path)
	}
	return cfg, nil
}
