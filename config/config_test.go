package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/language"

	"github.com/ByLCY/chequer/fonts"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chequer.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("缺失的配置文件不应报错: %v", err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Fatalf("应返回默认配置 (-want +got):\n%s", diff)
	}
	if err := c.ValidateFields(); err != nil {
		t.Fatalf("默认配置应有效: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database = "cheques.db"
default_dpi = 600
currency = "Dollars"
subunit = "Cents"
locale = "de"
log_level = "debug"
labels = true

[[fonts]]
family = "Courier Prime"
regular = "fonts/CourierPrime-Regular.ttf"
bold = "/abs/CourierPrime-Bold.ttf"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if c.DefaultDPI != 600 || c.GridMM != 1 || !c.Labels {
		t.Fatalf("unexpected config %+v", c)
	}
	if c.LanguageTag() != language.German {
		t.Fatalf("locale = %v", c.LanguageTag())
	}
	if c.Level() != zapcore.DebugLevel {
		t.Fatalf("level = %v", c.Level())
	}
	if got := c.Composer(); got.Currency != "Dollars" || got.Subunit != "Cents" {
		t.Fatalf("composer = %+v", got)
	}
	dir := filepath.Dir(path)
	if c.DatabasePath() != filepath.Join(dir, "cheques.db") {
		t.Fatalf("数据库路径应相对配置目录: %s", c.DatabasePath())
	}
	if len(c.Fonts) != 1 || c.Fonts[0].Family != "Courier Prime" || c.Fonts[0].Bold != "/abs/CourierPrime-Bold.ttf" {
		t.Fatalf("fonts = %+v", c.Fonts)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"dpi":       "default_dpi = 10",
		"log level": `log_level = "verbose"`,
		"locale":    `locale = "??"`,
		"font":      "[[fonts]]\nfamily = \"X\"",
		"duplicate": "[[fonts]]\nfamily = \"X\"\nregular = \"a.ttf\"\n[[fonts]]\nfamily = \"x\"\nregular = \"b.ttf\"",
		"syntax":    "database = ",
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Fatalf("%s: 期望报错", name)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	c := Default()
	c.GridMM = 0.5
	c.Fonts = []Font{{Family: "Mono", Files: fonts.Files{Regular: "mono.ttf"}}}
	if err := Save(path, c); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	c.DataDir = filepath.Dir(path)
	if diff := cmp.Diff(c, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestRegisterFonts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "custom.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatalf("写入字体失败: %v", err)
	}
	c := Default()
	c.DataDir = dir
	c.Fonts = []Font{{Family: "Custom Sans", Files: fonts.Files{Regular: "custom.ttf"}}}
	reg := fonts.NewRegistry()
	if err := c.RegisterFonts(reg); err != nil {
		t.Fatalf("RegisterFonts 失败: %v", err)
	}
	if _, ok := reg.Lookup("custom sans"); !ok {
		t.Fatalf("字体族未注册")
	}

	c.Fonts = []Font{{Family: "Missing", Files: fonts.Files{Regular: "nope.ttf"}}}
	if err := c.RegisterFonts(reg); err == nil {
		t.Fatalf("缺失的字体文件应报错")
	}
}
