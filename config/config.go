// Package config 读取 chequer 的 TOML 配置。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	"github.com/ByLCY/chequer/fonts"
	"github.com/ByLCY/chequer/layout"
	"github.com/ByLCY/chequer/words"
)

// DefaultLocation 为未指定 -config 时读取的配置文件。
const DefaultLocation = "./chequer.toml"

// Config is the root of the config file.
type Config struct {
	Database   string  `toml:"database" valid:"required"`
	DataDir    string  `toml:"data_dir" valid:"optional"`
	DefaultDPI int     `toml:"default_dpi" valid:"range(72|2400)"`
	GridMM     float64 `toml:"grid_mm" valid:"range(0|50)"`
	Currency   string  `toml:"currency" valid:"required"`
	Subunit    string  `toml:"subunit" valid:"optional"`
	Locale     string  `toml:"locale" valid:"required"`
	LogLevel   string  `toml:"log_level" valid:"in(debug|info|warn|error)"`
	// Labels 为 true 时默认输出带 label 的预览而非打印稿。
	Labels bool   `toml:"labels" valid:"optional"`
	Fonts  []Font `toml:"fonts" valid:"optional"`
}

// Font 声明一个自定义字体族，路径可相对于 data_dir。
type Font struct {
	Family string `toml:"family" valid:"required"`
	fonts.Files
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		Database:   "chequer.db",
		DefaultDPI: layout.DefaultDPI,
		GridMM:     1,
		Currency:   words.Default.Currency,
		Subunit:    words.Default.Subunit,
		Locale:     "en",
		LogLevel:   "info",
	}
}

// Load 读取配置文件，未设置的键保留默认值；文件不存在时直接返回默认配置。
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return c, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Dir(path)
	}
	if err := c.ValidateFields(); err != nil {
		return c, fmt.Errorf("配置 %s 无效: %w", path, err)
	}
	return c, nil
}

// Save 写入配置文件。
func Save(path string, c Config) error {
	if err := c.ValidateFields(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("写入配置 %s 失败: %w", path, err)
	}
	return f.Close()
}

// ValidateFields validates all the fields of the config.
func (c Config) ValidateFields() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return err
	}
	if c.DefaultDPI <= 0 {
		return fmt.Errorf("default_dpi must be positive, got %d", c.DefaultDPI)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("locale: %w", err)
	}
	seen := map[string]bool{}
	for i, f := range c.Fonts {
		name := strings.ToLower(strings.TrimSpace(f.Family))
		if seen[name] {
			return fmt.Errorf("fonts[%d]: duplicate family %q", i, f.Family)
		}
		seen[name] = true
		if f.Regular == "" {
			return fmt.Errorf("fonts[%d]: regular is required", i)
		}
	}
	return nil
}

// LanguageTag 返回金额格式化使用的语言标签。
func (c Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// Level 将 log_level 转为 zap 级别，未知值按 info 处理。
func (c Config) Level() zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Composer returns the amount-in-words composer for the configured currency.
func (c Config) Composer() words.Composer {
	return words.Composer{Currency: c.Currency, Subunit: c.Subunit}
}

// DatabasePath 解析数据库路径，相对路径基于 data_dir。
func (c Config) DatabasePath() string {
	return c.resolve(c.Database)
}

// RegisterFonts 将 [[fonts]] 中声明的字体注册到 reg。
func (c Config) RegisterFonts(reg *fonts.Registry) error {
	for _, f := range c.Fonts {
		files := fonts.Files{
			Regular:    c.resolve(f.Regular),
			Bold:       c.resolve(f.Bold),
			Italic:     c.resolve(f.Italic),
			BoldItalic: c.resolve(f.BoldItalic),
		}
		if err := reg.RegisterFiles(f.Family, files); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.DataDir == "" {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
