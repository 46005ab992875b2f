package extractor

import (
	"context"
	"fmt"
	"strings"
)

// Platform describes a short-video platform and the domain substrings that identify it
type Platform struct {
	ID      string
	Name    string
	Domains []string

	factory func(Options) Parser
}

// Supported reports whether a parser is bound to the platform
func (p Platform) Supported() bool {
	return p.factory != nil
}

// platforms is ordered: when domain sets overlap the earlier entry wins.
// Built once, never mutated.
var platforms = []Platform{
	{ID: "douyin", Name: "抖音", Domains: []string{"v.douyin.com", "www.iesdouyin.com", "www.douyin.com"},
		factory: func(o Options) Parser { return NewDouyinParser(o) }},
	{ID: "kuaishou", Name: "快手", Domains: []string{"v.kuaishou.com"}},
	{ID: "redbook", Name: "小红书", Domains: []string{"www.xiaohongshu.com", "xhslink.com"},
		factory: func(o Options) Parser { return NewRedBookParser(o) }},
	{ID: "weibo", Name: "微博", Domains: []string{"weibo.com"}},
	{ID: "pipixia", Name: "皮皮虾", Domains: []string{"h5.pipix.com"}},
	{ID: "weishi", Name: "微视", Domains: []string{"isee.weishi.qq.com"}},
	{ID: "lvzhou", Name: "绿洲", Domains: []string{"weibo.cn"}},
	{ID: "zuiyou", Name: "最右", Domains: []string{"share.xiaochuankeji.cn"}},
	{ID: "quanmin", Name: "度小视(原全民小视频)", Domains: []string{"xspshare.baidu.com"}},
	{ID: "xigua", Name: "西瓜视频", Domains: []string{"v.ixigua.com", "www.ixigua.com"}},
	{ID: "lishipin", Name: "梨视频", Domains: []string{"www.pearvideo.com"}},
	{ID: "pipigaoxiao", Name: "皮皮搞笑", Domains: []string{"h5.pipigx.com"}},
	{ID: "huya", Name: "虎牙", Domains: []string{"v.huya.com"}},
	{ID: "acfun", Name: "A站", Domains: []string{"www.acfun.cn"}},
	{ID: "doupai", Name: "逗拍", Domains: []string{"doupai.cc"}},
	{ID: "meipai", Name: "美拍", Domains: []string{"meipai.com"}},
	{ID: "quanminkge", Name: "全民K歌", Domains: []string{"kg.qq.com"}},
	{ID: "sixroom", Name: "六间房", Domains: []string{"6.cn"}},
	{ID: "xinpianchang", Name: "新片场", Domains: []string{"xinpianchang.com"}},
	{ID: "haokan", Name: "好看视频", Domains: []string{"haokan.baidu.com", "haokan.hao123.com"}},
}

// Platforms returns a copy of the platform table in detection order
func Platforms() []Platform {
	out := make([]Platform, len(platforms))
	copy(out, platforms)
	return out
}

// Detect returns the first platform whose domain list matches a substring of rawURL
func Detect(rawURL string) (Platform, bool) {
	if rawURL == "" {
		return Platform{}, false
	}
	for _, p := range platforms {
		for _, domain := range p.Domains {
			if strings.Contains(rawURL, domain) {
				return p, true
			}
		}
	}
	return Platform{}, false
}

// LookupPlatform finds a platform by identifier, ignoring case
func LookupPlatform(id string) (Platform, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range platforms {
		if p.ID == id {
			return p, true
		}
	}
	return Platform{}, false
}

// NewParser creates the parser bound to a platform identifier
func NewParser(id string, opts Options) (Parser, error) {
	p, ok := LookupPlatform(id)
	if !ok {
		return nil, &Error{
			Kind: KindUnsupportedPlatform,
			Msg:  fmt.Sprintf("unknown platform %q", id),
		}
	}
	if p.factory == nil {
		return nil, &Error{
			Kind:     KindUnsupportedPlatform,
			Platform: p.ID,
			Msg:      fmt.Sprintf("no parser available for %s", p.Name),
		}
	}
	return p.factory(opts), nil
}

// ParseShareURL detects the platform of the URL inside shareText and runs its parser
func ParseShareURL(ctx context.Context, shareText string, opts Options) (*VideoInfo, error) {
	u, ok := ExtractURL(shareText)
	if !ok {
		return nil, &Error{Kind: KindNoURLFound, Msg: "no URL found in share text"}
	}
	p, ok := Detect(u)
	if !ok {
		return nil, &Error{
			Kind: KindUnsupportedPlatform,
			Msg:  fmt.Sprintf("no platform matches %s", u),
		}
	}
	parser, err := NewParser(p.ID, opts)
	if err != nil {
		return nil, err
	}
	return parser.ParseShareURL(ctx, u)
}

// ParseVideoID resolves a platform-native ID through the parser bound to source
func ParseVideoID(ctx context.Context, source, id string, opts Options) (*VideoInfo, error) {
	parser, err := NewParser(source, opts)
	if err != nil {
		return nil, err
	}
	return parser.ParseVideoID(ctx, id)
}
