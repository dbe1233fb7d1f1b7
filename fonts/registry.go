// Package fonts 管理文本框字体族到 TTF 数据的映射，并提供 Go 字体作为内置回退。
package fonts

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体族名称。
const (
	Sans = "Go"
	Mono = "Go Mono"
)

// Style 为字重与倾斜的组合。
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

// StyleOf maps the bold/italic flags of a text box to a Style.
func StyleOf(bold, italic bool) Style {
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	default:
		return Regular
	}
}

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

// Set 保存一个字体族四种样式的 TTF 数据；缺失的样式回退到 Regular。
type Set struct {
	Regular    []byte
	Bold       []byte
	Italic     []byte
	BoldItalic []byte
}

// Data returns the bytes for style, falling back to Regular.
func (s Set) Data(style Style) []byte {
	var data []byte
	switch style {
	case Bold:
		data = s.Bold
	case Italic:
		data = s.Italic
	case BoldItalic:
		data = s.BoldItalic
	}
	if len(data) == 0 {
		return s.Regular
	}
	return data
}

// Files 为配置文件中声明的字体路径。
type Files struct {
	Regular    string `toml:"regular"`
	Bold       string `toml:"bold"`
	Italic     string `toml:"italic"`
	BoldItalic string `toml:"bold_italic"`
}

var builtins = map[string]Set{
	Sans: {Regular: goregular.TTF, Bold: gobold.TTF, Italic: goitalic.TTF, BoldItalic: gobolditalic.TTF},
	Mono: {Regular: gomono.TTF, Bold: gomonobold.TTF, Italic: gomonoitalic.TTF, BoldItalic: gomonobolditalic.TTF},
}

// 常见的系统字体名映射到内置字体，模板在没有安装这些字体的机器上也能测量与渲染。
var aliases = map[string]string{
	"system":     Sans,
	"arial":      Sans,
	"helvetica":  Sans,
	"sans-serif": Sans,
	"courier":    Mono,
	"monospace":  Mono,
}

// Registry 是并发安全的字体族注册表。
type Registry struct {
	mu       sync.RWMutex
	families map[string]Set
}

// NewRegistry 返回只包含内置 Go 字体的注册表。
func NewRegistry() *Registry {
	r := &Registry{families: map[string]Set{}}
	for name, set := range builtins {
		r.families[key(name)] = set
	}
	return r
}

func key(family string) string { return strings.ToLower(strings.TrimSpace(family)) }

// Register 注册或覆盖字体族。
func (r *Registry) Register(family string, set Set) error {
	if key(family) == "" {
		return fmt.Errorf("字体族名称不能为空")
	}
	if len(set.Regular) == 0 {
		return fmt.Errorf("字体族 %s 缺少 regular 字体", family)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.families[key(family)] = set
	return nil
}

// RegisterFiles 从磁盘读取字体文件后注册。
func (r *Registry) RegisterFiles(family string, files Files) error {
	var set Set
	for _, f := range []struct {
		path string
		dst  *[]byte
	}{
		{files.Regular, &set.Regular},
		{files.Bold, &set.Bold},
		{files.Italic, &set.Italic},
		{files.BoldItalic, &set.BoldItalic},
	} {
		if f.path == "" {
			continue
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			return fmt.Errorf("读取字体 %s 失败: %w", f.path, err)
		}
		*f.dst = data
	}
	return r.Register(family, set)
}

// Lookup 返回已注册的字体族（含别名），不做回退。
func (r *Registry) Lookup(family string) (Set, bool) {
	_, set, ok := r.lookup(family)
	return set, ok
}

// Resolve 返回字体族的规范名（小写）与数据；未知字体族回退到内置 Go 字体。
func (r *Registry) Resolve(family string) (string, Set) {
	if name, set, ok := r.lookup(family); ok {
		return name, set
	}
	return key(Sans), builtins[Sans]
}

func (r *Registry) lookup(family string) (string, Set, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k := key(family)
	if set, ok := r.families[k]; ok {
		return k, set, true
	}
	if alias, ok := aliases[k]; ok {
		if set, ok := r.families[key(alias)]; ok {
			return key(alias), set, true
		}
	}
	return "", Set{}, false
}

// Families 返回已注册的字体族名称（小写）。
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.families))
	for name := range r.families {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
