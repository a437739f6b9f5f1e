// ### 发布流程
// 1. 更新版本号: 修改 internal/pkg/version/version.go
// 2. 构建时通过 -ldflags 注入 BuildTime / GitCommit / GoVersion

package version

var (
	Version    = "1.0.0" // 版本号 -- 发布时候更新版本号
	APIVersion = "v1"
	BuildTime  string
	GitCommit  string
	GoVersion  string
)

// Info 版本信息
type Info struct {
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
	BuildTime  string `json:"buildTime,omitempty"`
	GitCommit  string `json:"gitCommit,omitempty"`
	GoVersion  string `json:"goVersion,omitempty"`
}

func Get() Info {
	return Info{
		Version:    Version,
		APIVersion: APIVersion,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  GoVersion,
	}
}

func GetVersion() string {
	return Version
}

// GetUserAgent 出站请求默认UA
func GetUserAgent() string {
	return "TaxSaleCollector/" + Version + " (+https://github.com/jpperkins30-ai/real-estate-platform-sub012)"
}
