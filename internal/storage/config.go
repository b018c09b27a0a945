package storage

import "time"

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Ollama struct {
		BaseURL string        `yaml:"base_url"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"ollama"`

	Search struct {
		BaseURL    string `yaml:"base_url"`
		MaxResults int    `yaml:"max_results"`
	} `yaml:"search"`

	Crawler struct {
		MaxPages          int           `yaml:"max_pages"`
		UserAgent         string        `yaml:"user_agent"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		FetchTimeout      time.Duration `yaml:"fetch_timeout"`
	} `yaml:"crawler"`

	Scrape struct {
		MaxChars int `yaml:"max_chars"`
		MinChars int `yaml:"min_chars"`
	} `yaml:"scrape"`

	Report struct {
		ReuseThreshold  int  `yaml:"reuse_threshold"`
		MinSectionChars int  `yaml:"min_section_chars"`
		MinSourceChars  int  `yaml:"min_source_chars"`
		MaxSources      int  `yaml:"max_sources"`
		ContextChunks   int  `yaml:"context_chunks"`
		ChunkWords      int  `yaml:"chunk_words"`
		AutoIEEE        bool `yaml:"auto_ieee"`
	} `yaml:"report"`

	Cache struct {
		LifeWindow time.Duration `yaml:"life_window"`
	} `yaml:"cache,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Database.Path = "./autoresearch.db"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.Model = "qwen2.5"
	cfg.Ollama.Timeout = 5 * time.Minute
	cfg.Search.BaseURL = "https://en.wikipedia.org/w/api.php"
	cfg.Search.MaxResults = 5
	cfg.Crawler.MaxPages = 20
	cfg.Crawler.UserAgent = "Mozilla/5.0 (compatible; AutoResearchBot/1.0)"
	cfg.Crawler.RequestsPerSecond = 2.0
	cfg.Crawler.FetchTimeout = 15 * time.Second
	cfg.Scrape.MaxChars = 30000
	cfg.Scrape.MinChars = 300
	cfg.Report.ReuseThreshold = 500
	cfg.Report.MinSectionChars = 200
	cfg.Report.MinSourceChars = 300
	cfg.Report.MaxSources = 4
	cfg.Report.ContextChunks = 4
	cfg.Report.ChunkWords = 350
	cfg.Report.AutoIEEE = false
	cfg.Cache.LifeWindow = 10 * time.Minute
	return cfg
}
