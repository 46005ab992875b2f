package extractor

import "testing"

func TestExtractURL(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "Douyin link inside promotional prose",
			input:  "7.43 复制打开抖音，看看【小明的作品】今天也要开心哦 # 日常 https://v.douyin.com/abc123/ q@E.ho 12/25 GIi:/",
			want:   "https://v.douyin.com/abc123/",
			wantOK: true,
		},
		{
			name:   "Bare URL",
			input:  "https://www.xiaohongshu.com/explore/64abc?xsec_token=x",
			want:   "https://www.xiaohongshu.com/explore/64abc?xsec_token=x",
			wantOK: true,
		},
		{
			name:   "First of several URLs",
			input:  "see http://xhslink.com/a/Bc1 and https://v.douyin.com/zzz/",
			want:   "http://xhslink.com/a/Bc1",
			wantOK: true,
		},
		{
			name:   "Port is kept",
			input:  "local http://127.0.0.1:8080/share/video/1 end",
			want:   "http://127.0.0.1:8080/share/video/1",
			wantOK: true,
		},
		{
			name:   "Host only",
			input:  "go to https://weibo.com now",
			want:   "https://weibo.com",
			wantOK: true,
		},
		{name: "Empty", input: "", wantOK: false},
		{name: "Blank", input: " \n\t ", wantOK: false},
		{name: "No URL", input: "复制打开抖音，看看作品", wantOK: false},
		{name: "Not http", input: "ftp://example.com/file", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractURL(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractURL(%q)\n  got:  %q, %v\n  want: %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractDouyinURL(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"看看 https://v.douyin.com/iRNBho6u/ 复制此链接", "https://v.douyin.com/iRNBho6u/", true},
		{"https://www.douyin.com/video/7234567890123", "https://www.douyin.com/video/7234567890123", true},
		{"https://www.iesdouyin.com/share/note/7234567890123", "https://www.iesdouyin.com/share/note/7234567890123", true},
		{"https://www.xiaohongshu.com/explore/64abc", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractDouyinURL(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ExtractDouyinURL(%q)\n  got:  %q, %v\n  want: %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
